package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/service"
)

// PostRepository persists post aggregates with their comments and likes.
type PostRepository struct {
	service.Tracker[*domain.PostAggregate]
	uow *UnitOfWork
}

func (r *PostRepository) Add(ctx context.Context, post *domain.PostAggregate) error {
	tx, err := r.uow.querier(ctx)
	if err != nil {
		return err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO posts (user_id, username, body, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, post.UserID, post.Username, post.Body, post.ImageURL)
	if err := row.Scan(&post.ID, &post.CreatedAt); err != nil {
		return err
	}
	r.Track(post)
	return nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.PostAggregate, error) {
	tx, err := r.uow.querier(ctx)
	if err != nil {
		return nil, err
	}
	post := &domain.PostAggregate{}
	row := tx.QueryRow(ctx, `
		SELECT id, user_id, username, body, image_url, created_at
		FROM posts
		WHERE id = $1
	`, id)
	if err := row.Scan(&post.ID, &post.UserID, &post.Username, &post.Body, &post.ImageURL, &post.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.hydrate(ctx, tx, post); err != nil {
		return nil, err
	}
	r.Track(post)
	return post, nil
}

// Save reconciles aggregate mutations: comments without an id are
// inserted (the store assigns ids), the like set is rewritten to match
// the aggregate.
func (r *PostRepository) Save(ctx context.Context, post *domain.PostAggregate) error {
	tx, err := r.uow.querier(ctx)
	if err != nil {
		return err
	}
	for _, c := range post.Comments {
		if c.ID != 0 {
			continue
		}
		row := tx.QueryRow(ctx, `
			INSERT INTO comments (post_id, user_id, username, body)
			VALUES ($1, $2, (SELECT username FROM users WHERE id = $2), $3)
			RETURNING id, username, created_at
		`, post.ID, c.UserID, c.Body)
		if err := row.Scan(&c.ID, &c.Username, &c.CreatedAt); err != nil {
			return err
		}
		c.PostID = post.ID
	}

	if _, err := tx.Exec(ctx, `DELETE FROM likes WHERE post_id = $1`, post.ID); err != nil {
		return err
	}
	for _, l := range post.Likes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO likes (post_id, user_id) VALUES ($1, $2)
		`, post.ID, l.UserID); err != nil {
			return err
		}
	}

	r.Track(post)
	return nil
}

func (r *PostRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.PostAggregate, error) {
	return r.listWhere(ctx, `WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *PostRepository) ListAll(ctx context.Context, sort string) ([]*domain.PostAggregate, error) {
	order := `ORDER BY id`
	if sort == "new" {
		order = `ORDER BY created_at DESC`
	}
	return r.listWhere(ctx, order)
}

func (r *PostRepository) listWhere(ctx context.Context, tail string, args ...any) ([]*domain.PostAggregate, error) {
	tx, err := r.uow.querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT id, user_id, username, body, image_url, created_at
		FROM posts `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*domain.PostAggregate
	for rows.Next() {
		post := &domain.PostAggregate{}
		if err := rows.Scan(&post.ID, &post.UserID, &post.Username, &post.Body, &post.ImageURL, &post.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, post := range posts {
		if err := r.hydrate(ctx, tx, post); err != nil {
			return nil, err
		}
	}
	r.Track(posts...)
	return posts, nil
}

func (r *PostRepository) hydrate(ctx context.Context, tx pgx.Tx, post *domain.PostAggregate) error {
	rows, err := tx.Query(ctx, `
		SELECT id, post_id, user_id, username, body, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY id
	`, post.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		c := &domain.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Username, &c.Body, &c.CreatedAt); err != nil {
			return err
		}
		post.Comments = append(post.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	likeRows, err := tx.Query(ctx, `
		SELECT post_id, user_id FROM likes WHERE post_id = $1 ORDER BY user_id
	`, post.ID)
	if err != nil {
		return err
	}
	defer likeRows.Close()
	for likeRows.Next() {
		var l domain.Like
		if err := likeRows.Scan(&l.PostID, &l.UserID); err != nil {
			return err
		}
		post.Likes = append(post.Likes, l)
	}
	return likeRows.Err()
}
