// Package legacy imports the db.json file of the old JSON-server backend.
//
// The file holds three arrays: users, transactions and goals. Ids in it
// may be numbers or strings. Users are created first and their legacy ids
// mapped to new ones; records owned by an unknown legacy id keep that id
// as owner. Goals are created before transactions so contributions can be
// pointed at the new goal ids.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

type file struct {
	Users        []json.RawMessage `json:"users"`
	Transactions []json.RawMessage `json:"transactions"`
	Goals        []json.RawMessage `json:"goals"`
}

type legacyUser struct {
	ID       any    `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Report counts what an import created.
type Report struct {
	Users         int
	ExistingUsers int
	Transactions  int
	Goals         int
	Skipped       int
}

type Importer struct {
	users      store.UserStore
	ledger     store.Ledger
	bcryptCost int
	logger     *log.Logger
}

func NewImporter(users store.UserStore, ledger store.Ledger, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Importer{
		users:      users,
		ledger:     ledger,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger.WithComponent(log.ComponentImport),
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func (im *Importer) WithBcryptCost(cost int) *Importer {
	im.bcryptCost = cost
	return im
}

// Import reads a db.json document from r. Records that do not decode or
// validate are skipped and counted; store failures abort the import.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Report, error) {
	var f file
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Report{}, fmt.Errorf("decode legacy file: %w", err)
	}

	var rep Report
	owners := make(map[string]string)
	for i, raw := range f.Users {
		if err := im.importUser(ctx, raw, owners, &rep); err != nil {
			return rep, fmt.Errorf("user %d: %w", i, err)
		}
	}

	goalIDs := make(map[string]string)
	for i, raw := range f.Goals {
		if err := im.importGoal(ctx, raw, owners, goalIDs, &rep); err != nil {
			return rep, fmt.Errorf("goal %d: %w", i, err)
		}
	}

	for i, raw := range f.Transactions {
		if err := im.importTransaction(ctx, raw, owners, goalIDs, &rep); err != nil {
			return rep, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	im.logger.InfoContext(ctx, "Legacy import finished",
		"users", rep.Users, "existing_users", rep.ExistingUsers,
		"transactions", rep.Transactions, "goals", rep.Goals, "skipped", rep.Skipped)
	return rep, nil
}

func (im *Importer) importUser(ctx context.Context, raw json.RawMessage, owners map[string]string, rep *Report) error {
	var u legacyUser
	if err := json.Unmarshal(raw, &u); err != nil {
		im.skip(ctx, "user", err, rep)
		return nil
	}
	email := core.NormalizeEmail(u.Email)
	if err := core.ValidateEmail(email); err != nil {
		im.skip(ctx, "user", err, rep)
		return nil
	}

	// Users without a usable password get a random one and have to reset it.
	password := u.Password
	if core.ValidatePassword(password) != nil {
		password = uuid.NewString()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), im.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	created, err := im.users.CreateUser(ctx, core.User{
		Email:        email,
		Name:         strings.TrimSpace(u.Name),
		PasswordHash: string(hash),
	})
	if errors.Is(err, store.ErrConflict) {
		existing, lookupErr := im.users.GetUserByEmail(ctx, email)
		if lookupErr != nil {
			return fmt.Errorf("lookup existing user: %w", lookupErr)
		}
		owners[idString(u.ID)] = existing.ID
		rep.ExistingUsers++
		return nil
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	owners[idString(u.ID)] = created.ID
	rep.Users++
	im.logger.DebugContext(ctx, "Imported user", "legacy_id", idString(u.ID), log.FieldUserID, created.ID)
	return nil
}

func (im *Importer) importGoal(ctx context.Context, raw json.RawMessage, owners, goalIDs map[string]string, rep *Report) error {
	legacyID, doc, err := normalize(raw, owners, nil)
	if err != nil {
		im.skip(ctx, "goal", err, rep)
		return nil
	}
	var g core.Goal
	if err := json.Unmarshal(doc, &g); err != nil {
		im.skip(ctx, "goal", err, rep)
		return nil
	}
	if err := g.Validate(); err != nil {
		im.skip(ctx, "goal", err, rep)
		return nil
	}

	created, err := im.ledger.CreateGoal(ctx, g)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	if legacyID != "" {
		goalIDs[legacyID] = created.ID
	}
	rep.Goals++
	return nil
}

func (im *Importer) importTransaction(ctx context.Context, raw json.RawMessage, owners, goalIDs map[string]string, rep *Report) error {
	_, doc, err := normalize(raw, owners, goalIDs)
	if err != nil {
		im.skip(ctx, "transaction", err, rep)
		return nil
	}
	var t core.Transaction
	if err := json.Unmarshal(doc, &t); err != nil {
		im.skip(ctx, "transaction", err, rep)
		return nil
	}
	t.Entry = core.WithCatalogNames(t.Entry)
	if err := t.Validate(); err != nil {
		im.skip(ctx, "transaction", err, rep)
		return nil
	}

	if _, err := im.ledger.CreateTransaction(ctx, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	rep.Transactions++
	return nil
}

func (im *Importer) skip(ctx context.Context, kind string, err error, rep *Report) {
	rep.Skipped++
	im.logger.WarnContext(ctx, "Skipping legacy record", "record", kind,
		log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeValidation)
}

// normalize drops the legacy id, maps userId (and goalId when goalIDs is
// given) to their new values, and returns the legacy id with the rewritten
// document.
func normalize(raw json.RawMessage, owners, goalIDs map[string]string) (string, []byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", nil, err
	}
	legacyID := idString(doc["id"])
	delete(doc, "id")

	owner := idString(doc["userId"])
	if mapped, ok := owners[owner]; ok {
		owner = mapped
	}
	doc["userId"] = owner

	if goalIDs != nil {
		if gid := idString(doc["goalId"]); gid != "" {
			if mapped, ok := goalIDs[gid]; ok {
				gid = mapped
			}
			doc["goalId"] = gid
		}
	}

	out, err := json.Marshal(doc)
	return legacyID, out, err
}

// idString renders a JSON id, which may be a number or a string.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
