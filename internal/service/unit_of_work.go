package service

import (
	"context"

	"github.com/matrixnet/social-service/internal/domain"
)

// UnitOfWork owns one transactional scope and the repositories bound to
// it. A scope lives for a single bus dispatch; Close rolls back whatever
// was not committed, so no partial state survives a failed handler.
type UnitOfWork interface {
	Users() UserRepository
	Posts() PostRepository

	// Commit durably persists everything issued through the repositories
	// since the scope opened (or since the previous commit).
	Commit(ctx context.Context) error

	// Rollback discards uncommitted work.
	Rollback(ctx context.Context) error

	// Close releases the scope. Uncommitted work is rolled back.
	Close(ctx context.Context) error
}

// Starter opens unit-of-work scopes. The message bus begins one per
// Handle call; nothing is shared across concurrent calls.
type Starter interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// CollectNewEvents drains the pending events of every aggregate the unit
// of work's repositories have seen, users first, then posts. Aggregates
// within one repository are walked in first-touch order; callers must not
// rely on ordering beyond that. Draining clears each aggregate's list, so
// a second call returns nothing new.
func CollectNewEvents(uow UnitOfWork) []domain.Event {
	var evts []domain.Event
	for _, u := range uow.Users().Seen() {
		evts = append(evts, u.PullEvents()...)
	}
	for _, p := range uow.Posts().Seen() {
		evts = append(evts, p.PullEvents()...)
	}
	return evts
}
