package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/service"
)

// UserRepository persists user aggregates inside the owning unit of
// work's transaction.
type UserRepository struct {
	service.Tracker[*domain.UserAggregate]
	uow *UnitOfWork
}

func (r *UserRepository) Add(ctx context.Context, user *domain.UserAggregate) error {
	tx, err := r.uow.querier(ctx)
	if err != nil {
		return err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash, bio, location, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, user.User.Email, user.User.Username, user.PasswordHash, user.Bio, user.Location, user.AvatarURL)
	if err := row.Scan(&user.User.ID, &user.CreatedAt); err != nil {
		return err
	}
	r.Track(user)
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*domain.UserAggregate, error) {
	return r.getWhere(ctx, `id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserAggregate, error) {
	return r.getWhere(ctx, `email = $1`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.UserAggregate, error) {
	return r.getWhere(ctx, `username = $1`, username)
}

func (r *UserRepository) getWhere(ctx context.Context, cond string, arg any) (*domain.UserAggregate, error) {
	tx, err := r.uow.querier(ctx)
	if err != nil {
		return nil, err
	}
	user := &domain.UserAggregate{}
	row := tx.QueryRow(ctx, `
		SELECT id, email, username, password_hash, bio, location, avatar_url, created_at
		FROM users
		WHERE `+cond, arg)
	if err := row.Scan(
		&user.User.ID, &user.User.Email, &user.User.Username, &user.PasswordHash,
		&user.Bio, &user.Location, &user.AvatarURL, &user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r.Track(user)
	return user, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.UserAggregate) error {
	tx, err := r.uow.querier(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, bio = $2, location = $3, avatar_url = $4
		WHERE id = $5
	`, user.PasswordHash, user.Bio, user.Location, user.AvatarURL, user.User.ID)
	if err != nil {
		return err
	}
	r.Track(user)
	return nil
}

// Delete removes the user row; posts, comments and likes follow through
// ON DELETE CASCADE foreign keys.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.uow.querier(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
