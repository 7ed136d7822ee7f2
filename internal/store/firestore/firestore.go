// Package firestore is the store backend for the hosted document database.
// Documents live in the users, transactions and goals collections, and
// ledger documents carry their owner in userId.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

const (
	usersCollection        = "users"
	transactionsCollection = "transactions"
	goalsCollection        = "goals"
)

type Config struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON string
	Logger          *log.Logger
}

type Store struct {
	client *firestore.Client
	now    func() time.Time
	logger *log.Logger
}

var _ store.Store = (*Store)(nil)

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore: project id is required")
	}
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Store{client: client, now: time.Now, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Documents are sorted after decoding: older documents store dates as
// strings, which Firestore would order apart from timestamps. Documents
// with a missing or unknown type are logged and left out.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	iter := s.client.Collection(transactionsCollection).Where(fieldUserID, "==", userID).Documents(ctx)
	defer iter.Stop()

	var docs []rawDoc
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		docs = append(docs, rawDoc{id: doc.Ref.ID, data: doc.Data()})
	}
	out := decodeTransactions(docs, func(id string, err error) {
		s.logger.WarnContext(ctx, "Skipping undecodable transaction",
			log.FieldUserID, userID, "transaction_id", id, log.FieldError, err.Error())
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if _, err := s.client.Collection(transactionsCollection).Doc(t.ID).Create(ctx, encodeTransaction(t)); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	ref := s.client.Collection(transactionsCollection).Doc(id)
	var updated core.Transaction
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return notFound(err)
		}
		current, err := decodeTransaction(snap.Ref.ID, snap.Data())
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return store.ErrNotFound
		}
		updated = patch.Apply(current)
		return tx.Update(ref, transactionUpdates(patch, updated))
	})
	if err != nil {
		return core.Transaction{}, wrap("update transaction", err)
	}
	return updated, nil
}

func transactionUpdates(patch core.TransactionPatch, t core.Transaction) []firestore.Update {
	var ups []firestore.Update
	if patch.Amount != nil {
		ups = append(ups, firestore.Update{Path: fieldAmount, Value: amountValue(t.Amount)})
	}
	if patch.Date != nil {
		ups = append(ups, firestore.Update{Path: fieldDate, Value: t.Date})
	}
	if patch.Notes != nil {
		ups = append(ups, firestore.Update{Path: fieldNotes, Value: t.Notes})
	}
	if patch.Entry != nil {
		flat := core.FlattenEntry(t.Entry)
		ups = append(ups,
			firestore.Update{Path: fieldType, Value: string(flat.Kind)},
			firestore.Update{Path: fieldCategoryID, Value: flat.CategoryID},
			firestore.Update{Path: fieldCategoryName, Value: flat.CategoryName},
			firestore.Update{Path: fieldGoalID, Value: flat.GoalID},
			firestore.Update{Path: fieldGoalName, Value: flat.GoalName},
		)
	}
	// Firestore rejects an empty update list.
	if len(ups) == 0 {
		ups = append(ups, firestore.Update{Path: fieldUserID, Value: t.UserID})
	}
	return ups
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, transactionsCollection, userID, id)
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	iter := s.client.Collection(goalsCollection).Where(fieldUserID, "==", userID).Documents(ctx)
	defer iter.Stop()

	var out []core.Goal
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list goals: %w", err)
		}
		out = append(out, decodeGoal(doc.Ref.ID, doc.Data()))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TargetDate.After(out[j].TargetDate) })
	return out, nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	snap, err := s.client.Collection(goalsCollection).Doc(id).Get(ctx)
	if err != nil {
		return core.Goal{}, wrap("get goal", notFound(err))
	}
	g := decodeGoal(snap.Ref.ID, snap.Data())
	if g.UserID != userID {
		return core.Goal{}, store.ErrNotFound
	}
	return g, nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = uuid.NewString()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	if _, err := s.client.Collection(goalsCollection).Doc(g.ID).Create(ctx, encodeGoal(g)); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, userID, id string, patch core.GoalPatch) (core.Goal, error) {
	ref := s.client.Collection(goalsCollection).Doc(id)
	var updated core.Goal
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return notFound(err)
		}
		current := decodeGoal(snap.Ref.ID, snap.Data())
		if current.UserID != userID {
			return store.ErrNotFound
		}
		updated = patch.Apply(current)
		return tx.Update(ref, goalUpdates(patch, updated))
	})
	if err != nil {
		return core.Goal{}, wrap("update goal", err)
	}
	return updated, nil
}

func goalUpdates(patch core.GoalPatch, g core.Goal) []firestore.Update {
	var ups []firestore.Update
	if patch.Title != nil {
		ups = append(ups, firestore.Update{Path: fieldTitle, Value: g.Title})
	}
	if patch.TargetAmount != nil {
		ups = append(ups, firestore.Update{Path: fieldTargetAmount, Value: amountValue(g.TargetAmount)})
	}
	if patch.CurrentAmount != nil {
		ups = append(ups, firestore.Update{Path: fieldCurrentAmount, Value: amountValue(g.CurrentAmount)})
	}
	if patch.TargetDate != nil {
		ups = append(ups, firestore.Update{Path: fieldTargetDate, Value: g.TargetDate})
	}
	if len(ups) == 0 {
		ups = append(ups, firestore.Update{Path: fieldUserID, Value: g.UserID})
	}
	return ups
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, goalsCollection, userID, id)
}

func (s *Store) deleteOwned(ctx context.Context, collection, userID, id string) error {
	ref := s.client.Collection(collection).Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return notFound(err)
		}
		if owner, _ := snap.Data()[fieldUserID].(string); owner != userID {
			return store.ErrNotFound
		}
		return tx.Delete(ref)
	})
	return wrap("delete "+collection, err)
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.ID = uuid.NewString()
	u.Email = core.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	users := s.client.Collection(usersCollection)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(users.Where(fieldEmail, "==", u.Email).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return store.ErrConflict
		}
		return tx.Create(users.Doc(u.ID), map[string]any{
			fieldEmail:        u.Email,
			fieldName:         u.Name,
			fieldPasswordHash: u.PasswordHash,
			fieldCreatedAt:    u.CreatedAt,
		})
	})
	if err != nil {
		return core.User{}, wrap("create user", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (core.User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		return core.User{}, wrap("get user", notFound(err))
	}
	return decodeUser(snap.Ref.ID, snap.Data()), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	docs, err := s.client.Collection(usersCollection).
		Where(fieldEmail, "==", core.NormalizeEmail(email)).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	if len(docs) == 0 {
		return core.User{}, store.ErrNotFound
	}
	return decodeUser(docs[0].Ref.ID, docs[0].Data()), nil
}

func (s *Store) UpdateUserName(ctx context.Context, id, name string) (core.User, error) {
	ref := s.client.Collection(usersCollection).Doc(id)
	if _, err := ref.Update(ctx, []firestore.Update{{Path: fieldName, Value: name}}); err != nil {
		return core.User{}, wrap("update user name", notFound(err))
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	ref := s.client.Collection(usersCollection).Doc(id)
	if _, err := ref.Update(ctx, []firestore.Update{{Path: fieldPasswordHash, Value: passwordHash}}); err != nil {
		return wrap("update password", notFound(err))
	}
	return nil
}

func notFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return store.ErrNotFound
	}
	return err
}

// wrap leaves the store sentinels bare so callers can compare them directly.
func wrap(op string, err error) error {
	if err == nil || errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
