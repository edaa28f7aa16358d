package service

import (
	"context"

	"github.com/matrixnet/social-service/internal/domain"
)

// Views is the read side: plain queries over a fresh unit-of-work scope,
// no commands, no events.
type Views struct {
	starter Starter
}

func NewViews(starter Starter) *Views {
	return &Views{starter: starter}
}

// GetPost returns a post with its comments and likes, or nil when it does
// not exist.
func (v *Views) GetPost(ctx context.Context, postID int64) (*domain.PostAggregate, error) {
	uow, err := v.starter.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Close(ctx) }()
	return uow.Posts().Get(ctx, postID)
}

// ListPosts returns all posts, optionally sorted ("new" for most recent
// first).
func (v *Views) ListPosts(ctx context.Context, sort string) ([]*domain.PostAggregate, error) {
	uow, err := v.starter.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Close(ctx) }()
	return uow.Posts().ListAll(ctx, sort)
}

// ListUserPosts returns the posts authored by one user.
func (v *Views) ListUserPosts(ctx context.Context, userID int64) ([]*domain.PostAggregate, error) {
	uow, err := v.starter.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Close(ctx) }()
	return uow.Posts().ListByUser(ctx, userID)
}

// GetUser returns a user's profile, or nil when it does not exist.
func (v *Views) GetUser(ctx context.Context, userID int64) (*domain.UserAggregate, error) {
	uow, err := v.starter.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Close(ctx) }()
	return uow.Users().Get(ctx, userID)
}

// GetUserByEmail returns the account registered under the email, or nil.
// The login flow uses it for credential checks.
func (v *Views) GetUserByEmail(ctx context.Context, email string) (*domain.UserAggregate, error) {
	uow, err := v.starter.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Close(ctx) }()
	return uow.Users().GetByEmail(ctx, email)
}
