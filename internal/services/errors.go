package services

import "errors"

var (
	// ErrUnauthenticated is returned before any store call when the session
	// has no signed-in user.
	ErrUnauthenticated = errors.New("you must be signed in")
	// ErrRemoteWrite wraps store failures on create, update and delete.
	ErrRemoteWrite = errors.New("could not save changes")
	// ErrGoalProgressNotUpdated reports that a contribution was saved but the
	// goal's current amount was not.
	ErrGoalProgressNotUpdated = errors.New("goal progress not updated")
	// ErrSessionChanged means a load finished after the session was cleared
	// or switched users, so its result was discarded.
	ErrSessionChanged = errors.New("session changed during load")
)

// User-facing warnings.
const (
	WarnTransactionsUnavailable = "Unable to load transactions."
	WarnGoalsUnavailable        = "Unable to load goals."
	WarnGoalProgress            = "Transaction saved but failed to update the goal progress."
)
