package core

import (
	"fmt"
	"strings"
)

// Kind is the discriminator of a transaction entry.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
	// KindGoal is stored as "goals" to stay compatible with existing documents.
	KindGoal Kind = "goals"
)

// ParseKind maps user input to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return KindIncome, nil
	case "expense":
		return KindExpense, nil
	case "goals", "goal", "goal-contribution", "goal_contribution":
		return KindGoal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

type (
	CategoryRef struct {
		ID   string
		Name string
	}

	GoalRef struct {
		ID   string
		Name string
	}

	// Entry is the variant part of a transaction. The set of
	// implementations is closed: Income, Expense and GoalContribution.
	Entry interface {
		Kind() Kind
		entry()
	}

	Income struct {
		Category CategoryRef
	}

	Expense struct {
		Category CategoryRef
	}

	GoalContribution struct {
		Goal GoalRef
	}
)

func (Income) Kind() Kind           { return KindIncome }
func (Expense) Kind() Kind          { return KindExpense }
func (GoalContribution) Kind() Kind { return KindGoal }

func (Income) entry()           {}
func (Expense) entry()          {}
func (GoalContribution) entry() {}

// MatchEntry dispatches on the entry variant. Every caller has to supply
// a handler for each variant, so adding a variant breaks every call site.
func MatchEntry[T any](e Entry, income func(Income) T, expense func(Expense) T, goal func(GoalContribution) T) (T, bool) {
	var zero T
	switch v := e.(type) {
	case Income:
		return income(v), true
	case Expense:
		return expense(v), true
	case GoalContribution:
		return goal(v), true
	default:
		return zero, false
	}
}

// FlatEntry is the persisted shape of an entry: the pair that does not
// belong to the kind is left empty.
type FlatEntry struct {
	Kind         Kind
	CategoryID   string
	CategoryName string
	GoalID       string
	GoalName     string
}

// FlattenEntry converts an entry to its persisted shape.
func FlattenEntry(e Entry) FlatEntry {
	flat, _ := MatchEntry(e,
		func(v Income) FlatEntry {
			return FlatEntry{Kind: KindIncome, CategoryID: v.Category.ID, CategoryName: v.Category.Name}
		},
		func(v Expense) FlatEntry {
			return FlatEntry{Kind: KindExpense, CategoryID: v.Category.ID, CategoryName: v.Category.Name}
		},
		func(v GoalContribution) FlatEntry {
			return FlatEntry{Kind: KindGoal, GoalID: v.Goal.ID, GoalName: v.Goal.Name}
		},
	)
	return flat
}

// Entry rebuilds the variant from its persisted shape.
func (f FlatEntry) Entry() (Entry, error) {
	switch f.Kind {
	case KindIncome:
		return Income{Category: CategoryRef{ID: f.CategoryID, Name: f.CategoryName}}, nil
	case KindExpense:
		return Expense{Category: CategoryRef{ID: f.CategoryID, Name: f.CategoryName}}, nil
	case KindGoal:
		return GoalContribution{Goal: GoalRef{ID: f.GoalID, Name: f.GoalName}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, f.Kind)
	}
}
