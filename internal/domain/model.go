package domain

import (
	"fmt"
	"time"
)

// User is the immutable identity of a registered account. The id is
// assigned by the store on first insert and never changes afterwards.
type User struct {
	ID       int64
	Email    string
	Username string
}

// Comment belongs to a post. Identity is the id once the store has
// assigned one; a zero id marks a comment that has not been persisted yet.
type Comment struct {
	ID       int64
	PostID   int64
	UserID   int64
	Username string
	Body     string
	CreatedAt time.Time
}

// Like is identified by its (post, user) pair. A post holds at most one
// like per user.
type Like struct {
	PostID int64
	UserID int64
}

// Recorder accumulates domain events on an aggregate until a unit of work
// drains them. Aggregates embed it.
type Recorder struct {
	pending []Event
}

// Record appends events to the pending list.
func (r *Recorder) Record(evts ...Event) {
	r.pending = append(r.pending, evts...)
}

// PullEvents returns the pending events and clears the list. Draining is
// the unit of work's job and happens at most once per dispatch step.
func (r *Recorder) PullEvents() []Event {
	evts := r.pending
	r.pending = nil
	return evts
}

// UserAggregate wraps a User identity with its mutable profile state.
type UserAggregate struct {
	Recorder

	User         User
	Bio          string
	Location     string
	AvatarURL    string
	PasswordHash string
	CreatedAt    time.Time
}

// UpdateProfile overwrites only the fields that were supplied. A nil
// parameter leaves the current value untouched, it does not clear it.
func (u *UserAggregate) UpdateProfile(bio, location, avatarURL *string) {
	if bio != nil {
		u.Bio = *bio
	}
	if location != nil {
		u.Location = *location
	}
	if avatarURL != nil {
		u.AvatarURL = *avatarURL
	}
}

// ChangePassword replaces the stored hash. Verifying the old password is
// the caller's business; this layer only refuses an empty hash.
func (u *UserAggregate) ChangePassword(newHash string) error {
	if newHash == "" {
		return fmt.Errorf("%w: password hash cannot be empty", ErrInvalidOperation)
	}
	u.PasswordHash = newHash
	return nil
}

// PostAggregate is the consistency boundary for a post and its comments
// and likes. Username is a snapshot of the author's name at creation time.
type PostAggregate struct {
	Recorder

	ID        int64
	UserID    int64
	Username  string
	Body      string
	ImageURL  string
	Comments  []*Comment
	Likes     []Like
	CreatedAt time.Time
}

// AddComment validates and attaches a new comment. The comment id stays
// zero until the repository persists it.
func (p *PostAggregate) AddComment(userID int64, body string) (*Comment, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: comment body cannot be empty", ErrInvalidOperation)
	}
	c := &Comment{PostID: p.ID, UserID: userID, Body: body}
	p.Comments = append(p.Comments, c)
	return c, nil
}

// ToggleLike is the only mutation path for likes. It returns the new Like
// when the user had not liked the post, or nil when an existing like was
// removed.
func (p *PostAggregate) ToggleLike(userID int64) *Like {
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return nil
		}
	}
	like := Like{PostID: p.ID, UserID: userID}
	p.Likes = append(p.Likes, like)
	return &like
}

// LikedBy reports whether the post currently holds a like from the user.
func (p *PostAggregate) LikedBy(userID int64) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}
