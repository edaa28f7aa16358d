// Package memory is a map-backed store satisfying the same unit-of-work
// and repository contracts as the postgres backend. It backs tests and
// local runs without a database; commit and rollback are flags, not
// transactions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/service"
)

// Store holds all state shared across unit-of-work scopes. It hands out
// a fresh UnitOfWork per Begin call, each with its own seen-tracking.
type Store struct {
	mu            sync.Mutex
	users         map[int64]*domain.UserAggregate
	posts         map[int64]*domain.PostAggregate
	nextUserID    int64
	nextPostID    int64
	nextCommentID int64
}

func NewStore() *Store {
	return &Store{
		users: make(map[int64]*domain.UserAggregate),
		posts: make(map[int64]*domain.PostAggregate),
	}
}

// Begin opens a new unit-of-work scope over the shared maps.
func (s *Store) Begin(_ context.Context) (service.UnitOfWork, error) {
	return s.NewUnitOfWork(), nil
}

// NewUnitOfWork returns the concrete type, handy in tests that inspect
// the Committed flag.
func (s *Store) NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{
		users: &UserRepository{store: s},
		posts: &PostRepository{store: s},
	}
}

// UnitOfWork tracks commit state; the maps themselves are mutated in
// place, so Commit and Rollback are bookkeeping only.
type UnitOfWork struct {
	users      *UserRepository
	posts      *PostRepository
	Committed  bool
	RolledBack bool
}

func (u *UnitOfWork) Users() service.UserRepository { return u.users }
func (u *UnitOfWork) Posts() service.PostRepository { return u.posts }

func (u *UnitOfWork) Commit(_ context.Context) error {
	u.Committed = true
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	u.Committed = false
	u.RolledBack = true
	return nil
}

func (u *UnitOfWork) Close(_ context.Context) error {
	if !u.Committed {
		u.RolledBack = true
	}
	return nil
}

// UserRepository stores user aggregates in the shared map.
type UserRepository struct {
	service.Tracker[*domain.UserAggregate]
	store *Store
}

func (r *UserRepository) Add(_ context.Context, user *domain.UserAggregate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if user.User.ID == 0 {
		r.store.nextUserID++
		user.User.ID = r.store.nextUserID
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.store.users[user.User.ID] = user
	r.Track(user)
	return nil
}

func (r *UserRepository) Get(_ context.Context, id int64) (*domain.UserAggregate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	r.Track(user)
	return user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.UserAggregate, error) {
	return r.find(func(u *domain.UserAggregate) bool { return u.User.Email == email })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.UserAggregate, error) {
	return r.find(func(u *domain.UserAggregate) bool { return u.User.Username == username })
}

func (r *UserRepository) find(match func(*domain.UserAggregate) bool) (*domain.UserAggregate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if match(u) {
			r.Track(u)
			return u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Save(_ context.Context, user *domain.UserAggregate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[user.User.ID] = user
	r.Track(user)
	return nil
}

// Delete removes the user and cascades to posts, comments and likes, the
// same guarantee the postgres schema gives via foreign keys.
func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.users, id)
	for postID, post := range r.store.posts {
		if post.UserID == id {
			delete(r.store.posts, postID)
			continue
		}
		kept := post.Comments[:0]
		for _, c := range post.Comments {
			if c.UserID != id {
				kept = append(kept, c)
			}
		}
		post.Comments = kept
		keptLikes := post.Likes[:0]
		for _, l := range post.Likes {
			if l.UserID != id {
				keptLikes = append(keptLikes, l)
			}
		}
		post.Likes = keptLikes
	}
	return nil
}

// PostRepository stores post aggregates in the shared map.
type PostRepository struct {
	service.Tracker[*domain.PostAggregate]
	store *Store
}

func (r *PostRepository) Add(_ context.Context, post *domain.PostAggregate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if post.ID == 0 {
		r.store.nextPostID++
		post.ID = r.store.nextPostID
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	r.store.assignCommentIDs(post)
	r.store.posts[post.ID] = post
	r.Track(post)
	return nil
}

func (r *PostRepository) Get(_ context.Context, id int64) (*domain.PostAggregate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	post, ok := r.store.posts[id]
	if !ok {
		return nil, nil
	}
	r.Track(post)
	return post, nil
}

func (r *PostRepository) Save(_ context.Context, post *domain.PostAggregate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.assignCommentIDs(post)
	r.store.posts[post.ID] = post
	r.Track(post)
	return nil
}

func (r *PostRepository) ListByUser(_ context.Context, userID int64) ([]*domain.PostAggregate, error) {
	return r.list(func(p *domain.PostAggregate) bool { return p.UserID == userID }, "")
}

func (r *PostRepository) ListAll(_ context.Context, sortBy string) ([]*domain.PostAggregate, error) {
	return r.list(func(*domain.PostAggregate) bool { return true }, sortBy)
}

func (r *PostRepository) list(match func(*domain.PostAggregate) bool, sortBy string) ([]*domain.PostAggregate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var posts []*domain.PostAggregate
	for _, p := range r.store.posts {
		if match(p) {
			posts = append(posts, p)
		}
	}
	if sortBy == "new" {
		sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	} else {
		sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	}
	r.Track(posts...)
	return posts, nil
}

// assignCommentIDs mimics the store generating comment ids on insert.
// Caller must hold the mutex.
func (s *Store) assignCommentIDs(post *domain.PostAggregate) {
	for _, c := range post.Comments {
		if c.ID == 0 {
			s.nextCommentID++
			c.ID = s.nextCommentID
			c.PostID = post.ID
			if c.CreatedAt.IsZero() {
				c.CreatedAt = time.Now().UTC()
			}
		}
	}
}
