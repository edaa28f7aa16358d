package service

import (
	"context"

	"github.com/matrixnet/social-service/internal/domain"
)

// UserRepository is the per-aggregate store contract for users. Every
// aggregate an implementation hands out or accepts must be tracked so the
// unit of work can harvest its events afterwards.
//
// Lookups return (nil, nil) on a miss; an error means the store itself
// failed.
type UserRepository interface {
	Add(ctx context.Context, user *domain.UserAggregate) error
	Get(ctx context.Context, id int64) (*domain.UserAggregate, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserAggregate, error)
	GetByUsername(ctx context.Context, username string) (*domain.UserAggregate, error)
	Save(ctx context.Context, user *domain.UserAggregate) error
	// Delete removes the user together with dependent posts, comments and
	// likes. The cascade is a storage-layer guarantee.
	Delete(ctx context.Context, id int64) error
	Seen() []*domain.UserAggregate
}

// PostRepository is the store contract for posts.
type PostRepository interface {
	Add(ctx context.Context, post *domain.PostAggregate) error
	Get(ctx context.Context, id int64) (*domain.PostAggregate, error)
	// Save persists in-place mutations: new comments get their store
	// ids assigned here, like toggles are reconciled.
	Save(ctx context.Context, post *domain.PostAggregate) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.PostAggregate, error)
	ListAll(ctx context.Context, sort string) ([]*domain.PostAggregate, error)
	Seen() []*domain.PostAggregate
}

// Tracker is the "seen" set shared by repository implementations. It
// keeps insertion order and ignores duplicates, so event collection walks
// aggregates in the order the repository first touched them.
type Tracker[A comparable] struct {
	seen  []A
	index map[A]struct{}
}

// Track records aggregates in the seen set.
func (t *Tracker[A]) Track(aggs ...A) {
	if t.index == nil {
		t.index = make(map[A]struct{})
	}
	for _, a := range aggs {
		if _, ok := t.index[a]; ok {
			continue
		}
		t.index[a] = struct{}{}
		t.seen = append(t.seen, a)
	}
}

// Seen returns every tracked aggregate in first-touch order.
func (t *Tracker[A]) Seen() []A {
	return t.seen
}
