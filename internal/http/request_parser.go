package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// decodeJSON reads a single JSON object into dst. Unknown fields are
// ignored; amounts that do not parse surface as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// parseDate accepts a calendar day or an RFC 3339 instant. Calendar days
// are midnight in loc.
func parseDate(field, s string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, &core.ValidationError{Field: field, Err: core.ErrMissingDate}
	}
	t, ok := core.ParseInstant(s, loc)
	if !ok {
		return time.Time{}, &core.ValidationError{Field: field, Err: core.ErrInvalidDate}
	}
	return t, nil
}

type transactionRequest struct {
	Type       string      `json:"type"`
	Amount     *core.Money `json:"amount"`
	Date       string      `json:"date"`
	Notes      *string     `json:"notes"`
	CategoryID string      `json:"categoryId"`
	GoalID     string      `json:"goalId"`
}

func (req transactionRequest) entry() (core.Entry, error) {
	if strings.TrimSpace(req.Type) == "" {
		return nil, &core.ValidationError{Field: "type", Err: core.ErrMissingKind}
	}
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return nil, &core.ValidationError{Field: "type", Err: err}
	}
	return core.FlatEntry{
		Kind:       kind,
		CategoryID: sanitizeInput(req.CategoryID),
		GoalID:     sanitizeInput(req.GoalID),
	}.Entry()
}

// transaction builds a new record. Missing fields are left zero so the
// ledger's validation reports them.
func (req transactionRequest) transaction(loc *time.Location) (core.Transaction, error) {
	entry, err := req.entry()
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate("date", req.Date, loc)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{Date: date, Entry: entry}
	if req.Amount != nil {
		t.Amount = *req.Amount
	}
	if req.Notes != nil {
		t.Notes = sanitizeInput(*req.Notes)
	}
	return t, nil
}

// patch changes the entry only when a type is given.
func (req transactionRequest) patch(loc *time.Location) (core.TransactionPatch, error) {
	var p core.TransactionPatch
	if req.Type != "" {
		entry, err := req.entry()
		if err != nil {
			return p, err
		}
		p.Entry = entry
	} else if req.CategoryID != "" || req.GoalID != "" {
		return p, &core.ValidationError{Field: "type", Err: core.ErrMissingKind}
	}
	if req.Date != "" {
		date, err := parseDate("date", req.Date, loc)
		if err != nil {
			return p, err
		}
		p.Date = &date
	}
	p.Amount = req.Amount
	if req.Notes != nil {
		notes := sanitizeInput(*req.Notes)
		p.Notes = &notes
	}
	return p, nil
}

type goalRequest struct {
	Title         *string     `json:"title"`
	Name          *string     `json:"name"`
	TargetAmount  *core.Money `json:"targetAmount"`
	CurrentAmount *core.Money `json:"currentAmount"`
	TargetDate    string      `json:"targetDate"`
}

func (req goalRequest) title() *string {
	for _, v := range []*string{req.Title, req.Name} {
		if v != nil {
			s := sanitizeInput(*v)
			return &s
		}
	}
	return nil
}

func (req goalRequest) goal(loc *time.Location) (core.Goal, error) {
	var g core.Goal
	if t := req.title(); t != nil {
		g.Title = *t
	}
	if req.TargetAmount != nil {
		g.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		g.CurrentAmount = *req.CurrentAmount
	}
	date, err := parseDate("targetDate", req.TargetDate, loc)
	if err != nil {
		return g, err
	}
	g.TargetDate = date
	return g, nil
}

func (req goalRequest) patch(loc *time.Location) (core.GoalPatch, error) {
	p := core.GoalPatch{
		Title:         req.title(),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
	}
	if req.TargetDate != "" {
		date, err := parseDate("targetDate", req.TargetDate, loc)
		if err != nil {
			return p, err
		}
		p.TargetDate = &date
	}
	return p, nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name string `json:"name"`
}
