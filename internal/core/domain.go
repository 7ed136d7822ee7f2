package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type (
	Money struct {
		Cents int64
	}

	User struct {
		ID           string
		Email        string
		Name         string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Transaction is a single ledger record. Entry holds the kind-specific
	// part; Date is a calendar day.
	Transaction struct {
		ID        string
		UserID    string
		Amount    Money
		Date      time.Time
		Notes     string
		Entry     Entry
		CreatedAt time.Time
	}

	Goal struct {
		ID            string
		UserID        string
		Title         string
		TargetAmount  Money
		CurrentAmount Money
		TargetDate    time.Time
		CreatedAt     time.Time
	}

	// TransactionPatch is a partial update; nil fields are left untouched.
	TransactionPatch struct {
		Amount *Money
		Date   *time.Time
		Notes  *string
		Entry  Entry
	}

	GoalPatch struct {
		Title         *string
		TargetAmount  *Money
		CurrentAmount *Money
		TargetDate    *time.Time
	}
)

const MinPasswordLength = 6

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidKind     = errors.New("invalid transaction type")
	ErrMissingDate     = errors.New("date is required")
	ErrMissingKind     = errors.New("type is required")
	ErrMissingCategory = errors.New("category is required")
	ErrUnknownCategory = errors.New("unknown category")
	ErrMissingGoal     = errors.New("goal is required")
	ErrEmptyTitle      = errors.New("title is required")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrEmptyName       = errors.New("name is required")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrShortPassword   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// ValidationError names the offending field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Kind returns the entry kind, or "" when the entry is missing.
func (t Transaction) Kind() Kind {
	if t.Entry == nil {
		return ""
	}
	return t.Entry.Kind()
}

// GoalRef returns the referenced goal for contributions.
func (t Transaction) GoalRef() (GoalRef, bool) {
	if g, ok := t.Entry.(GoalContribution); ok {
		return g.Goal, true
	}
	return GoalRef{}, false
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if t.Date.IsZero() {
		return invalid("date", ErrMissingDate)
	}
	return ValidateEntry(t.Entry)
}

// ValidateEntry checks the kind-specific part of a transaction.
func ValidateEntry(e Entry) error {
	if e == nil {
		return invalid("type", ErrMissingKind)
	}
	err, _ := MatchEntry(e,
		func(v Income) error { return validateCategory(KindIncome, v.Category) },
		func(v Expense) error { return validateCategory(KindExpense, v.Category) },
		func(v GoalContribution) error {
			if strings.TrimSpace(v.Goal.ID) == "" {
				return invalid("goalId", ErrMissingGoal)
			}
			return nil
		},
	)
	return err
}

func validateCategory(k Kind, c CategoryRef) error {
	if strings.TrimSpace(c.ID) == "" {
		return invalid("categoryId", ErrMissingCategory)
	}
	if _, ok := LookupCategory(k, c.ID); !ok {
		return invalid("categoryId", fmt.Errorf("%w %q for %s", ErrUnknownCategory, c.ID, k))
	}
	return nil
}

// WithCatalogNames fills missing category names from the catalog.
func WithCatalogNames(e Entry) Entry {
	switch v := e.(type) {
	case Income:
		if c, ok := LookupCategory(KindIncome, v.Category.ID); ok && v.Category.Name == "" {
			v.Category.Name = c.Name
		}
		return v
	case Expense:
		if c, ok := LookupCategory(KindExpense, v.Category.ID); ok && v.Category.Name == "" {
			v.Category.Name = c.Name
		}
		return v
	default:
		return e
	}
}

func (p TransactionPatch) Validate() error {
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return invalid("amount", err)
		}
	}
	if p.Date != nil && p.Date.IsZero() {
		return invalid("date", ErrMissingDate)
	}
	if p.Entry != nil {
		return ValidateEntry(p.Entry)
	}
	return nil
}

// Apply returns t with the patch applied.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Entry != nil {
		t.Entry = p.Entry
	}
	return t
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return invalid("targetAmount", err)
	}
	if g.CurrentAmount.Cents < 0 {
		return invalid("currentAmount", ErrNegativeAmount)
	}
	if g.TargetDate.IsZero() {
		return invalid("targetDate", ErrMissingDate)
	}
	return nil
}

func (p GoalPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if p.TargetAmount != nil {
		if err := p.TargetAmount.Validate(); err != nil {
			return invalid("targetAmount", err)
		}
	}
	if p.CurrentAmount != nil && p.CurrentAmount.Cents < 0 {
		return invalid("currentAmount", ErrNegativeAmount)
	}
	if p.TargetDate != nil && p.TargetDate.IsZero() {
		return invalid("targetDate", ErrMissingDate)
	}
	return nil
}

func (p GoalPatch) Apply(g Goal) Goal {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
	return g
}

// Registration is the input of a sign-up.
type Registration struct {
	Name     string
	Email    string
	Password string
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", ErrEmptyName)
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	return ValidatePassword(r.Password)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return invalid("email", ErrInvalidEmail)
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalid("password", ErrShortPassword)
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
