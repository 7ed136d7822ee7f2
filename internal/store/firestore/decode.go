package firestore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Documents keep the field names of the existing collections. Amounts are
// stored as plain numbers in currency units.
const (
	fieldUserID        = "userId"
	fieldType          = "type"
	fieldAmount        = "amount"
	fieldDate          = "date"
	fieldNotes         = "notes"
	fieldCategoryID    = "categoryId"
	fieldCategoryName  = "categoryName"
	fieldGoalID        = "goalId"
	fieldGoalName      = "goalName"
	fieldCreatedAt     = "createdAt"
	fieldDateCreated   = "dateCreated"
	fieldTitle         = "title"
	fieldName          = "name"
	fieldTargetAmount  = "targetAmount"
	fieldCurrentAmount = "currentAmount"
	fieldTargetDate    = "targetDate"
	fieldEmail         = "email"
	fieldPasswordHash  = "passwordHash"
)

type rawDoc struct {
	id   string
	data map[string]any
}

// decodeTransactions keeps the documents that decode and reports each one
// that does not to skip.
func decodeTransactions(docs []rawDoc, skip func(id string, err error)) []core.Transaction {
	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		t, err := decodeTransaction(d.id, d.data)
		if err != nil {
			skip(d.id, err)
			continue
		}
		out = append(out, t)
	}
	return out
}

func decodeTransaction(id string, data map[string]any) (core.Transaction, error) {
	kind, err := core.ParseKind(stringField(data, fieldType))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, err)
	}
	entry, err := core.FlatEntry{
		Kind:         kind,
		CategoryID:   stringField(data, fieldCategoryID),
		CategoryName: stringField(data, fieldCategoryName),
		GoalID:       stringField(data, fieldGoalID),
		GoalName:     stringField(data, fieldGoalName),
	}.Entry()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, err)
	}

	t := core.Transaction{
		ID:     id,
		UserID: stringField(data, fieldUserID),
		Amount: moneyField(data, fieldAmount),
		Notes:  stringField(data, fieldNotes),
		Entry:  entry,
	}
	t.Date, _ = core.FirstInstant(time.Local, data[fieldDate], data[fieldCreatedAt], data[fieldTargetDate])
	t.CreatedAt, _ = core.FirstInstant(time.Local, data[fieldCreatedAt], data[fieldDateCreated])
	return t, nil
}

func encodeTransaction(t core.Transaction) map[string]any {
	flat := core.FlattenEntry(t.Entry)
	return map[string]any{
		fieldUserID:       t.UserID,
		fieldType:         string(flat.Kind),
		fieldAmount:       amountValue(t.Amount),
		fieldDate:         t.Date,
		fieldNotes:        t.Notes,
		fieldCategoryID:   flat.CategoryID,
		fieldCategoryName: flat.CategoryName,
		fieldGoalID:       flat.GoalID,
		fieldGoalName:     flat.GoalName,
		fieldCreatedAt:    t.CreatedAt,
	}
}

func decodeGoal(id string, data map[string]any) core.Goal {
	g := core.Goal{
		ID:            id,
		UserID:        stringField(data, fieldUserID),
		Title:         core.GoalTitle(stringField(data, fieldTitle), stringField(data, fieldName)),
		TargetAmount:  moneyField(data, fieldTargetAmount),
		CurrentAmount: moneyField(data, fieldCurrentAmount),
	}
	g.TargetDate, _ = core.FirstInstant(time.Local, data[fieldTargetDate], data[fieldDate])
	g.CreatedAt, _ = core.FirstInstant(time.Local, data[fieldCreatedAt], data[fieldDateCreated])
	return g
}

func encodeGoal(g core.Goal) map[string]any {
	return map[string]any{
		fieldUserID:        g.UserID,
		fieldTitle:         g.Title,
		fieldTargetAmount:  amountValue(g.TargetAmount),
		fieldCurrentAmount: amountValue(g.CurrentAmount),
		fieldTargetDate:    g.TargetDate,
		fieldCreatedAt:     g.CreatedAt,
	}
}

func decodeUser(id string, data map[string]any) core.User {
	u := core.User{
		ID:           id,
		Email:        stringField(data, fieldEmail),
		Name:         stringField(data, fieldName),
		PasswordHash: stringField(data, fieldPasswordHash),
	}
	u.CreatedAt, _ = core.FirstInstant(time.Local, data[fieldCreatedAt])
	return u
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// moneyField reads a number or numeric string. Anything else reads as zero,
// which is how a missing currentAmount has always been treated.
func moneyField(data map[string]any, key string) core.Money {
	switch v := data[key].(type) {
	case int64:
		return core.MoneyFromDecimal(decimal.NewFromInt(v))
	case int:
		return core.MoneyFromDecimal(decimal.NewFromInt(int64(v)))
	case float64:
		return core.MoneyFromDecimal(decimal.NewFromFloat(v))
	case string:
		m, err := core.ParseMoney(v)
		if err != nil {
			return core.Money{}
		}
		return m
	default:
		return core.Money{}
	}
}

func amountValue(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}
