package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/matrixnet/social-service/internal/domain"
)

// Collaborator contracts injected into handlers at bootstrap. The core
// never constructs these; it only calls them.

// PasswordHasher turns a plaintext password into a stored hash.
type PasswordHasher func(plain string) (string, error)

// FileStorage uploads a local file under the given name and returns its
// public URL.
type FileStorage interface {
	Upload(ctx context.Context, localPath, fileName string) (string, error)
}

// Notifier delivers a message to a recipient, best effort.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SearchIndexer keeps the user search index in sync.
type SearchIndexer interface {
	IndexUser(ctx context.Context, userID int64, email, username string) error
}

// --- Command handlers ---

// RegisterUser creates a new account after verifying that neither the
// email nor the username is taken. The username defaults to the email's
// local part when not supplied.
func RegisterUser(ctx context.Context, uow UnitOfWork, cmd domain.RegisterUser, hash PasswordHasher) (int64, error) {
	existing, err := uow.Users().GetByEmail(ctx, cmd.Email)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, fmt.Errorf("%w: email %s is already registered", domain.ErrUserExists, cmd.Email)
	}
	if cmd.Username != "" {
		existing, err = uow.Users().GetByUsername(ctx, cmd.Username)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			return 0, fmt.Errorf("%w: username %s is already taken", domain.ErrUserExists, cmd.Username)
		}
	}

	username := cmd.Username
	if username == "" {
		username = strings.SplitN(cmd.Email, "@", 2)[0]
	}
	passwordHash, err := hash(cmd.Password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.UserAggregate{
		User:         domain.User{Email: cmd.Email, Username: username},
		Bio:          cmd.Bio,
		Location:     cmd.Location,
		AvatarURL:    cmd.AvatarURL,
		PasswordHash: passwordHash,
	}
	if err := uow.Users().Add(ctx, user); err != nil {
		return 0, err
	}
	user.Record(domain.UserRegistered{UserID: user.User.ID, Email: cmd.Email, Username: username})

	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}
	return user.User.ID, nil
}

// CreatePost creates a post for an existing user, snapshotting the
// author's username at creation time.
func CreatePost(ctx context.Context, uow UnitOfWork, cmd domain.CreatePost) (int64, error) {
	user, err := uow.Users().Get(ctx, cmd.UserID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("%w: user %d not found", domain.ErrUnauthorized, cmd.UserID)
	}

	post := &domain.PostAggregate{
		UserID:   cmd.UserID,
		Username: user.User.Username,
		Body:     cmd.Body,
		ImageURL: cmd.ImageURL,
	}
	if err := uow.Posts().Add(ctx, post); err != nil {
		return 0, err
	}
	post.Record(domain.PostCreated{PostID: post.ID, UserID: cmd.UserID, Username: post.Username})

	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}
	return post.ID, nil
}

// AddComment appends a comment to an existing post. The comment id is
// assigned by the store during Save, so the event is recorded afterwards.
func AddComment(ctx context.Context, uow UnitOfWork, cmd domain.AddComment) (int64, error) {
	post, err := uow.Posts().Get(ctx, cmd.PostID)
	if err != nil {
		return 0, err
	}
	if post == nil {
		return 0, fmt.Errorf("%w: post %d", domain.ErrPostNotFound, cmd.PostID)
	}

	comment, err := post.AddComment(cmd.UserID, cmd.Body)
	if err != nil {
		return 0, err
	}
	if err := uow.Posts().Save(ctx, post); err != nil {
		return 0, err
	}
	post.Record(domain.CommentAdded{PostID: cmd.PostID, CommentID: comment.ID, UserID: cmd.UserID})

	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}
	return comment.ID, nil
}

// ToggleLike flips the like state for (post, user) and reports the state
// after the toggle.
func ToggleLike(ctx context.Context, uow UnitOfWork, cmd domain.ToggleLike) (bool, error) {
	post, err := uow.Posts().Get(ctx, cmd.PostID)
	if err != nil {
		return false, err
	}
	if post == nil {
		return false, fmt.Errorf("%w: post %d", domain.ErrPostNotFound, cmd.PostID)
	}

	liked := post.ToggleLike(cmd.UserID) != nil
	if err := uow.Posts().Save(ctx, post); err != nil {
		return false, err
	}
	post.Record(domain.LikeToggled{PostID: cmd.PostID, UserID: cmd.UserID, Liked: liked})

	if err := uow.Commit(ctx); err != nil {
		return false, err
	}
	return liked, nil
}

// UploadFile has no owning aggregate; the FileUploaded event rides back
// to the bus on the Result instead of through the unit of work.
func UploadFile(ctx context.Context, uow UnitOfWork, cmd domain.UploadFile, storage FileStorage) (Result, error) {
	url, err := storage.Upload(ctx, cmd.LocalPath, cmd.FileName)
	if err != nil {
		return Result{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return Result{}, err
	}
	return Result{
		Value:  url,
		Events: []domain.Event{domain.FileUploaded{FileName: cmd.FileName, FileURL: url}},
	}, nil
}

// UpdateProfile applies a partial profile update. No event is emitted for
// profile changes.
func UpdateProfile(ctx context.Context, uow UnitOfWork, cmd domain.UpdateProfile) (int64, error) {
	user, err := uow.Users().Get(ctx, cmd.UserID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("%w: user %d not found", domain.ErrUnauthorized, cmd.UserID)
	}

	user.UpdateProfile(cmd.Bio, cmd.Location, cmd.AvatarURL)
	if err := uow.Users().Save(ctx, user); err != nil {
		return 0, err
	}
	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}
	return user.User.ID, nil
}

// ChangePassword replaces the stored hash for an existing user.
func ChangePassword(ctx context.Context, uow UnitOfWork, cmd domain.ChangePassword) (int64, error) {
	user, err := uow.Users().Get(ctx, cmd.UserID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("%w: user %d not found", domain.ErrUnauthorized, cmd.UserID)
	}

	if err := user.ChangePassword(cmd.NewPasswordHash); err != nil {
		return 0, err
	}
	if err := uow.Users().Save(ctx, user); err != nil {
		return 0, err
	}
	user.Record(domain.PasswordChanged{UserID: cmd.UserID})

	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}
	return user.User.ID, nil
}

// DeleteAccount removes the user; posts, comments and likes go with it
// via the storage layer's cascade.
func DeleteAccount(ctx context.Context, uow UnitOfWork, cmd domain.DeleteAccount) (int64, error) {
	user, err := uow.Users().Get(ctx, cmd.UserID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("%w: user %d not found", domain.ErrUnauthorized, cmd.UserID)
	}

	if err := uow.Users().Delete(ctx, cmd.UserID); err != nil {
		return 0, err
	}
	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}
	return cmd.UserID, nil
}

// --- Event handlers ---

// SendWelcomeEmail greets a freshly registered user. Delivery failures
// surface as errors and are swallowed by the bus.
func SendWelcomeEmail(ctx context.Context, evt domain.UserRegistered, notifier Notifier) error {
	body := fmt.Sprintf("Hi %s, your account has been created.", evt.Username)
	return notifier.Send(ctx, evt.Email, "Welcome to Matrix-Net", body)
}

// IndexRegisteredUser pushes the new user into the search index.
func IndexRegisteredUser(ctx context.Context, evt domain.UserRegistered, indexer SearchIndexer) error {
	return indexer.IndexUser(ctx, evt.UserID, evt.Email, evt.Username)
}

// NotifyPasswordChanged sends a security notice to the account's email.
func NotifyPasswordChanged(ctx context.Context, uow UnitOfWork, evt domain.PasswordChanged, notifier Notifier) error {
	user, err := uow.Users().Get(ctx, evt.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user %d not found", domain.ErrUnauthorized, evt.UserID)
	}
	body := fmt.Sprintf("Hi %s, the password on your account was just changed.", user.User.Username)
	return notifier.Send(ctx, user.User.Email, "Your password was changed", body)
}

// LogFileUploaded records upload metadata. Placeholder for heavier side
// effects such as storing file records.
func LogFileUploaded(_ context.Context, evt domain.FileUploaded, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"file_name": evt.FileName,
		"file_url":  evt.FileURL,
	}).Info("file uploaded")
	return nil
}
