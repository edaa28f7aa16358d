// Package postgres backs the unit-of-work and repository contracts with
// pgx transactions.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matrixnet/social-service/internal/service"
)

// Starter opens unit-of-work scopes on a dedicated pooled connection.
type Starter struct {
	pool *pgxpool.Pool
}

func NewStarter(pool *pgxpool.Pool) *Starter {
	return &Starter{pool: pool}
}

func (s *Starter) Begin(ctx context.Context) (service.UnitOfWork, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	uow := &UnitOfWork{conn: conn}
	uow.users = &UserRepository{uow: uow}
	uow.posts = &PostRepository{uow: uow}
	return uow, nil
}

// UnitOfWork owns one connection for the duration of a dispatch. The
// transaction begins lazily on first use; Commit ends it and the next
// repository call starts a fresh one, so a handler cascade can commit
// several times on one scope.
type UnitOfWork struct {
	conn  *pgxpool.Conn
	tx    pgx.Tx
	users *UserRepository
	posts *PostRepository
}

func (u *UnitOfWork) Users() service.UserRepository { return u.users }
func (u *UnitOfWork) Posts() service.PostRepository { return u.posts }

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Commit(ctx)
	u.tx = nil
	return err
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(ctx)
	u.tx = nil
	return err
}

// Close rolls back any transaction still open and releases the
// connection. Deferred by the bus, so an error exit never leaves partial
// state behind.
func (u *UnitOfWork) Close(ctx context.Context) error {
	err := u.Rollback(ctx)
	u.conn.Release()
	return err
}

// querier returns the current transaction, beginning one if needed.
func (u *UnitOfWork) querier(ctx context.Context) (pgx.Tx, error) {
	if u.tx != nil {
		return u.tx, nil
	}
	tx, err := u.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	u.tx = tx
	return u.tx, nil
}
