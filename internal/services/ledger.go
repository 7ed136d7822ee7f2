package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/store"
)

// EventPublisher announces ledger changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev amqp.Event) error
}

// Outcome is the result of a write. Warnings carry partial failures that
// did not stop the write itself.
type Outcome struct {
	Transaction core.Transaction
	Goal        core.Goal
	Warnings    []string
}

// LoadResult is what Load applied to the session.
type LoadResult struct {
	Transactions []core.Transaction
	Goals        []core.Goal
	Warnings     []string
}

// LedgerService runs transaction and goal operations for a session. Writes
// go to the store first; events are published afterwards and a publish
// failure never fails the write.
type LedgerService struct {
	store      store.Ledger
	publisher  EventPublisher
	reconciler *GoalReconciler
	logger     *log.Logger
}

func NewLedgerService(ledger store.Ledger, publisher EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Nop()
	}
	return &LedgerService{
		store:      ledger,
		publisher:  publisher,
		reconciler: NewGoalReconciler(ledger, logger),
		logger:     logger.WithComponent(log.ComponentLedger),
	}
}

// Load fetches the user's transactions and goals concurrently. A failed
// fetch does not cancel the other one; it yields an empty collection and a
// warning. The result is applied to sess only if sess still belongs to the
// user the load started for.
func (s *LedgerService) Load(ctx context.Context, sess *session.Session) (LoadResult, error) {
	userID := sess.UserID()
	if userID == "" {
		return LoadResult{}, ErrUnauthenticated
	}
	ticket := sess.Begin()

	var (
		txs            []core.Transaction
		goals          []core.Goal
		txErr, goalErr error
		g              errgroup.Group
	)
	g.Go(func() error {
		txs, txErr = s.store.ListTransactions(ctx, userID)
		return nil
	})
	g.Go(func() error {
		goals, goalErr = s.store.ListGoals(ctx, userID)
		return nil
	})
	_ = g.Wait()

	var res LoadResult
	if txErr != nil {
		s.logFailure(ctx, "Failed to load transactions", txErr, log.OpLoad, userID)
		res.Warnings = append(res.Warnings, WarnTransactionsUnavailable)
		txs = nil
	}
	if goalErr != nil {
		s.logFailure(ctx, "Failed to load goals", goalErr, log.OpLoad, userID)
		res.Warnings = append(res.Warnings, WarnGoalsUnavailable)
		goals = nil
	}
	res.Transactions = nonNil(txs)
	res.Goals = nonNil(goals)

	if !sess.Apply(ticket, session.Snapshot{Transactions: res.Transactions, Goals: res.Goals}) {
		s.logger.DebugContext(ctx, "Discarding stale load", log.FieldSessionID, sess.ID())
		return LoadResult{}, ErrSessionChanged
	}
	return res, nil
}

func (s *LedgerService) AddTransaction(ctx context.Context, sess *session.Session, t core.Transaction) (Outcome, error) {
	userID := sess.UserID()
	if userID == "" {
		return Outcome{}, ErrUnauthenticated
	}
	t.UserID = userID
	t.Notes = strings.TrimSpace(t.Notes)
	t.Entry = withGoalName(core.WithCatalogNames(t.Entry), sess)
	if err := t.Validate(); err != nil {
		return Outcome{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		s.logFailure(ctx, "Failed to create transaction", err, log.OpCreate, userID)
		return Outcome{}, fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}
	s.logger.InfoContext(ctx, "Transaction created", log.NewFields().
		WithOperation(log.OpCreate).WithUser(userID).
		WithTransaction(created.ID, string(created.Kind()), created.Amount.Cents).ToSlice()...)

	out := Outcome{Transaction: created}
	if ref, ok := created.GoalRef(); ok {
		if _, err := s.reconciler.Contribute(ctx, userID, ref.ID, created.Amount, sess); err != nil {
			s.logger.WarnContext(ctx, "Contribution saved without goal progress", log.NewFields().
				WithOperation(log.OpReconcile).WithUser(userID).WithGoal(ref.ID).
				WithError(err).WithErrorType(log.ErrorTypePartial).ToSlice()...)
			out.Warnings = append(out.Warnings, WarnGoalProgress)
		}
	}

	s.publish(ctx, amqp.EventTransactionCreated, userID, created.ID)
	return out, nil
}

// UpdateTransaction applies a partial update. Changing a contribution does
// not touch the goal's progress.
func (s *LedgerService) UpdateTransaction(ctx context.Context, sess *session.Session, id string, patch core.TransactionPatch) (Outcome, error) {
	userID := sess.UserID()
	if userID == "" {
		return Outcome{}, ErrUnauthenticated
	}
	if patch.Entry != nil {
		patch.Entry = withGoalName(core.WithCatalogNames(patch.Entry), sess)
	}
	if patch.Notes != nil {
		notes := strings.TrimSpace(*patch.Notes)
		patch.Notes = &notes
	}
	if err := patch.Validate(); err != nil {
		return Outcome{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, userID, id, patch)
	if err != nil {
		return Outcome{}, s.writeError(ctx, "Failed to update transaction", err, log.OpUpdate, userID)
	}
	s.publish(ctx, amqp.EventTransactionUpdated, userID, updated.ID)
	return Outcome{Transaction: updated}, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, sess *session.Session, id string) error {
	userID := sess.UserID()
	if userID == "" {
		return ErrUnauthenticated
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return s.writeError(ctx, "Failed to delete transaction", err, log.OpDelete, userID)
	}
	s.publish(ctx, amqp.EventTransactionDeleted, userID, id)
	return nil
}

func (s *LedgerService) CreateGoal(ctx context.Context, sess *session.Session, g core.Goal) (Outcome, error) {
	userID := sess.UserID()
	if userID == "" {
		return Outcome{}, ErrUnauthenticated
	}
	g.UserID = userID
	g.Title = strings.TrimSpace(g.Title)
	if err := g.Validate(); err != nil {
		return Outcome{}, err
	}

	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		s.logFailure(ctx, "Failed to create goal", err, log.OpCreate, userID)
		return Outcome{}, fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}
	sess.SetGoalAmount(created.ID, created.CurrentAmount)
	s.logger.InfoContext(ctx, "Goal created", log.NewFields().
		WithOperation(log.OpCreate).WithUser(userID).WithGoal(created.ID).ToSlice()...)

	s.publish(ctx, amqp.EventGoalCreated, userID, created.ID)
	return Outcome{Goal: created}, nil
}

func (s *LedgerService) UpdateGoal(ctx context.Context, sess *session.Session, id string, patch core.GoalPatch) (Outcome, error) {
	userID := sess.UserID()
	if userID == "" {
		return Outcome{}, ErrUnauthenticated
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if err := patch.Validate(); err != nil {
		return Outcome{}, err
	}

	updated, err := s.store.UpdateGoal(ctx, userID, id, patch)
	if err != nil {
		return Outcome{}, s.writeError(ctx, "Failed to update goal", err, log.OpUpdate, userID)
	}
	sess.SetGoalAmount(updated.ID, updated.CurrentAmount)
	s.publish(ctx, amqp.EventGoalUpdated, userID, updated.ID)
	return Outcome{Goal: updated}, nil
}

// DeleteGoal removes the goal only. Contributions keep pointing at it and
// are reported under their stored goal name.
func (s *LedgerService) DeleteGoal(ctx context.Context, sess *session.Session, id string) error {
	userID := sess.UserID()
	if userID == "" {
		return ErrUnauthenticated
	}
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return s.writeError(ctx, "Failed to delete goal", err, log.OpDelete, userID)
	}
	sess.ForgetGoal(id)
	s.publish(ctx, amqp.EventGoalDeleted, userID, id)
	return nil
}

// writeError keeps ErrNotFound recognizable and wraps everything else in
// ErrRemoteWrite.
func (s *LedgerService) writeError(ctx context.Context, msg string, err error, op, userID string) error {
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	s.logFailure(ctx, msg, err, op, userID)
	return fmt.Errorf("%w: %w", ErrRemoteWrite, err)
}

func (s *LedgerService) publish(ctx context.Context, t amqp.EventType, userID, entityID string) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping event", log.FieldEventType, string(t))
		return
	}
	if err := s.publisher.PublishEvent(ctx, amqp.NewEvent(t, userID, entityID)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", log.NewFields().
			WithOperation(log.OpPublish).WithUser(userID).WithError(err).ToSlice()...)
	}
}

func (s *LedgerService) logFailure(ctx context.Context, msg string, err error, op, userID string) {
	s.logger.ErrorContext(ctx, msg, log.NewFields().
		WithOperation(op).WithUser(userID).WithError(err).WithErrorType(log.ErrorTypeDatabase).ToSlice()...)
}

// withGoalName fills a contribution's goal name from the session snapshot.
func withGoalName(e core.Entry, sess *session.Session) core.Entry {
	c, ok := e.(core.GoalContribution)
	if !ok || c.Goal.Name != "" || c.Goal.ID == "" {
		return e
	}
	snap, _ := sess.Snapshot()
	for _, g := range snap.Goals {
		if g.ID == c.Goal.ID {
			c.Goal.Name = g.Title
			break
		}
	}
	return c
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
