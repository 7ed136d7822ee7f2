package core

import (
	"encoding/json"
	"time"
)

// transactionJSON is the flat document shape used on the wire and by the
// document stores.
type transactionJSON struct {
	ID           string     `json:"id,omitempty"`
	UserID       string     `json:"userId,omitempty"`
	Type         Kind       `json:"type"`
	Amount       Money      `json:"amount"`
	Date         string     `json:"date"`
	Notes        string     `json:"notes,omitempty"`
	CategoryID   string     `json:"categoryId,omitempty"`
	CategoryName string     `json:"categoryName,omitempty"`
	GoalID       string     `json:"goalId,omitempty"`
	GoalName     string     `json:"goalName,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	flat := FlattenEntry(t.Entry)
	out := transactionJSON{
		ID:           t.ID,
		UserID:       t.UserID,
		Type:         flat.Kind,
		Amount:       t.Amount,
		Notes:        t.Notes,
		CategoryID:   flat.CategoryID,
		CategoryName: flat.CategoryName,
		GoalID:       flat.GoalID,
		GoalName:     flat.GoalName,
	}
	if !t.Date.IsZero() {
		out.Date = t.Date.Format(DayLayout)
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		out.CreatedAt = &created
	}
	return json.Marshal(out)
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var in struct {
		ID           string `json:"id"`
		UserID       string `json:"userId"`
		Type         string `json:"type"`
		Amount       Money  `json:"amount"`
		Date         any    `json:"date"`
		CreatedAt    any    `json:"createdAt"`
		TargetDate   any    `json:"targetDate"`
		Notes        string `json:"notes"`
		CategoryID   string `json:"categoryId"`
		CategoryName string `json:"categoryName"`
		GoalID       string `json:"goalId"`
		GoalName     string `json:"goalName"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseKind(in.Type)
	if err != nil {
		return err
	}
	entry, err := FlatEntry{
		Kind:         kind,
		CategoryID:   in.CategoryID,
		CategoryName: in.CategoryName,
		GoalID:       in.GoalID,
		GoalName:     in.GoalName,
	}.Entry()
	if err != nil {
		return err
	}
	*t = Transaction{
		ID:     in.ID,
		UserID: in.UserID,
		Amount: in.Amount,
		Notes:  in.Notes,
		Entry:  entry,
	}
	t.Date, _ = FirstInstant(time.Local, in.Date, in.CreatedAt, in.TargetDate)
	t.CreatedAt, _ = ParseInstant(in.CreatedAt, time.Local)
	return nil
}

type goalJSON struct {
	ID            string     `json:"id,omitempty"`
	UserID        string     `json:"userId,omitempty"`
	Title         string     `json:"title"`
	TargetAmount  Money      `json:"targetAmount"`
	CurrentAmount Money      `json:"currentAmount"`
	TargetDate    string     `json:"targetDate"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

func (g Goal) MarshalJSON() ([]byte, error) {
	out := goalJSON{
		ID:            g.ID,
		UserID:        g.UserID,
		Title:         g.Title,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
	}
	if !g.TargetDate.IsZero() {
		out.TargetDate = g.TargetDate.Format(DayLayout)
	}
	if !g.CreatedAt.IsZero() {
		created := g.CreatedAt
		out.CreatedAt = &created
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the legacy "name" field when "title" is absent and
// treats a missing currentAmount as zero.
func (g *Goal) UnmarshalJSON(data []byte) error {
	var in struct {
		ID            string `json:"id"`
		UserID        string `json:"userId"`
		Title         string `json:"title"`
		Name          string `json:"name"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
		TargetDate    any    `json:"targetDate"`
		Date          any    `json:"date"`
		CreatedAt     any    `json:"createdAt"`
		DateCreated   any    `json:"dateCreated"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*g = Goal{
		ID:            in.ID,
		UserID:        in.UserID,
		Title:         GoalTitle(in.Title, in.Name),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
	}
	g.TargetDate, _ = FirstInstant(time.Local, in.TargetDate, in.Date)
	g.CreatedAt, _ = FirstInstant(time.Local, in.CreatedAt, in.DateCreated)
	return nil
}

// GoalTitle picks the first non-empty title candidate.
func GoalTitle(title, name string) string {
	switch {
	case title != "":
		return title
	case name != "":
		return name
	default:
		return "Unnamed Goal"
	}
}

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// MarshalJSON never exposes the password hash.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userJSON{ID: u.ID, Email: u.Email, Name: u.Name})
}
