// Package bootstrap builds the message bus: it binds every command and
// event handler together with its collaborators. Handler tables are fixed
// here; nothing registers at runtime.
package bootstrap

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/matrixnet/social-service/internal/adapters"
	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/service"
	"github.com/matrixnet/social-service/pkg/helpers"
)

// Options carries the collaborators to wire into handlers. Starter and
// Logger are required; Hasher defaults to bcrypt, Notifier to the log
// notifier, Indexer and Storage may be nil when the backing systems are
// not configured.
type Options struct {
	Starter  service.Starter
	Logger   *logrus.Logger
	Hasher   service.PasswordHasher
	Storage  service.FileStorage
	Notifier service.Notifier
	Indexer  service.SearchIndexer
}

// New constructs the process-wide message bus.
func New(opts Options) *service.MessageBus {
	if opts.Hasher == nil {
		opts.Hasher = helpers.HashPassword
	}
	if opts.Notifier == nil {
		opts.Notifier = adapters.NewLogNotifier(opts.Logger)
	}

	commandHandlers := map[string]service.CommandHandler{
		domain.RegisterUser{}.CommandName(): command(func(ctx context.Context, uow service.UnitOfWork, cmd domain.RegisterUser) (int64, error) {
			return service.RegisterUser(ctx, uow, cmd, opts.Hasher)
		}),
		domain.CreatePost{}.CommandName():     command(service.CreatePost),
		domain.AddComment{}.CommandName():     command(service.AddComment),
		domain.ToggleLike{}.CommandName():     command(service.ToggleLike),
		domain.UpdateProfile{}.CommandName():  command(service.UpdateProfile),
		domain.ChangePassword{}.CommandName(): command(service.ChangePassword),
		domain.DeleteAccount{}.CommandName():  command(service.DeleteAccount),
		domain.UploadFile{}.CommandName(): func(ctx context.Context, uow service.UnitOfWork, cmd domain.Command) (service.Result, error) {
			return service.UploadFile(ctx, uow, cmd.(domain.UploadFile), opts.Storage)
		},
	}

	welcome := event(func(ctx context.Context, _ service.UnitOfWork, evt domain.UserRegistered) error {
		return service.SendWelcomeEmail(ctx, evt, opts.Notifier)
	})
	eventHandlers := map[string][]service.EventHandler{
		domain.UserRegistered{}.EventName(): {welcome},
		domain.PasswordChanged{}.EventName(): {
			event(func(ctx context.Context, uow service.UnitOfWork, evt domain.PasswordChanged) error {
				return service.NotifyPasswordChanged(ctx, uow, evt, opts.Notifier)
			}),
		},
		domain.FileUploaded{}.EventName(): {
			event(func(ctx context.Context, _ service.UnitOfWork, evt domain.FileUploaded) error {
				return service.LogFileUploaded(ctx, evt, opts.Logger)
			}),
		},
	}
	if opts.Indexer != nil {
		eventHandlers[domain.UserRegistered{}.EventName()] = append(
			eventHandlers[domain.UserRegistered{}.EventName()],
			event(func(ctx context.Context, _ service.UnitOfWork, evt domain.UserRegistered) error {
				return service.IndexRegisteredUser(ctx, evt, opts.Indexer)
			}),
		)
	}

	return service.NewMessageBus(opts.Starter, commandHandlers, eventHandlers, opts.Logger)
}

// command adapts a typed handler to the bus signature.
func command[C domain.Command, R any](h func(context.Context, service.UnitOfWork, C) (R, error)) service.CommandHandler {
	return func(ctx context.Context, uow service.UnitOfWork, cmd domain.Command) (service.Result, error) {
		v, err := h(ctx, uow, cmd.(C))
		if err != nil {
			return service.Result{}, err
		}
		return service.Result{Value: v}, nil
	}
}

// event adapts a typed handler to the bus signature.
func event[E domain.Event](h func(context.Context, service.UnitOfWork, E) error) service.EventHandler {
	return func(ctx context.Context, uow service.UnitOfWork, evt domain.Event) error {
		return h(ctx, uow, evt.(E))
	}
}
