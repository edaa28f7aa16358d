package service_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/infrastructure/memory"
	"github.com/matrixnet/social-service/internal/service"
)

type pingCommand struct{ Target int64 }

func (pingCommand) CommandName() string { return "Ping" }

type pingedEvent struct{ Target int64 }

func (pingedEvent) EventName() string { return "Pinged" }

type echoEvent struct{}

func (echoEvent) EventName() string { return "Echoed" }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestHandleCommandReturnsResults(t *testing.T) {
	handlers := map[string]service.CommandHandler{
		"Ping": func(_ context.Context, _ service.UnitOfWork, cmd domain.Command) (service.Result, error) {
			return service.Result{Value: cmd.(pingCommand).Target * 2}, nil
		},
	}
	bus := service.NewMessageBus(memory.NewStore(), handlers, nil, quietLogger())

	results, err := bus.Handle(context.Background(), pingCommand{Target: 21})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(42), results[0])
}

func TestHandleDispatchesResultEventsInOrder(t *testing.T) {
	var trace []string
	handlers := map[string]service.CommandHandler{
		"Ping": func(_ context.Context, _ service.UnitOfWork, _ domain.Command) (service.Result, error) {
			trace = append(trace, "command")
			return service.Result{Events: []domain.Event{pingedEvent{Target: 1}}}, nil
		},
	}
	eventHandlers := map[string][]service.EventHandler{
		"Pinged": {
			func(_ context.Context, _ service.UnitOfWork, _ domain.Event) error {
				trace = append(trace, "pinged-1")
				return nil
			},
			func(_ context.Context, _ service.UnitOfWork, _ domain.Event) error {
				trace = append(trace, "pinged-2")
				return nil
			},
		},
	}
	bus := service.NewMessageBus(memory.NewStore(), handlers, eventHandlers, quietLogger())

	_, err := bus.Handle(context.Background(), pingCommand{})
	require.NoError(t, err)
	assert.Equal(t, []string{"command", "pinged-1", "pinged-2"}, trace)
}

func TestHandleCollectsAggregateEvents(t *testing.T) {
	store := memory.NewStore()
	var received []domain.Event

	handlers := map[string]service.CommandHandler{
		"Ping": func(ctx context.Context, uow service.UnitOfWork, _ domain.Command) (service.Result, error) {
			user := &domain.UserAggregate{User: domain.User{Email: "neo@matrix.net", Username: "neo"}}
			if err := uow.Users().Add(ctx, user); err != nil {
				return service.Result{}, err
			}
			user.Record(domain.UserRegistered{UserID: user.User.ID, Email: user.User.Email, Username: user.User.Username})
			return service.Result{Value: user.User.ID}, uow.Commit(ctx)
		},
	}
	eventHandlers := map[string][]service.EventHandler{
		"UserRegistered": {
			func(_ context.Context, _ service.UnitOfWork, evt domain.Event) error {
				received = append(received, evt)
				return nil
			},
		},
	}
	bus := service.NewMessageBus(store, handlers, eventHandlers, quietLogger())

	results, err := bus.Handle(context.Background(), pingCommand{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, received, 1)
	evt, ok := received[0].(domain.UserRegistered)
	require.True(t, ok)
	assert.Equal(t, results[0], evt.UserID)
}

func TestHandleEventErrorDoesNotAbort(t *testing.T) {
	var trace []string
	handlers := map[string]service.CommandHandler{
		"Ping": func(_ context.Context, _ service.UnitOfWork, _ domain.Command) (service.Result, error) {
			return service.Result{Events: []domain.Event{pingedEvent{}, echoEvent{}}}, nil
		},
	}
	eventHandlers := map[string][]service.EventHandler{
		"Pinged": {
			func(_ context.Context, _ service.UnitOfWork, _ domain.Event) error {
				trace = append(trace, "failing")
				return errors.New("smtp down")
			},
			func(_ context.Context, _ service.UnitOfWork, _ domain.Event) error {
				trace = append(trace, "after-failure")
				return nil
			},
		},
		"Echoed": {
			func(_ context.Context, _ service.UnitOfWork, _ domain.Event) error {
				trace = append(trace, "echoed")
				return nil
			},
		},
	}
	bus := service.NewMessageBus(memory.NewStore(), handlers, eventHandlers, quietLogger())

	_, err := bus.Handle(context.Background(), pingCommand{})
	require.NoError(t, err, "event failures never surface to the caller")
	assert.Equal(t, []string{"failing", "after-failure", "echoed"}, trace)
}

func TestHandleEventPanicIsContained(t *testing.T) {
	var reached bool
	handlers := map[string]service.CommandHandler{
		"Ping": func(_ context.Context, _ service.UnitOfWork, _ domain.Command) (service.Result, error) {
			return service.Result{Events: []domain.Event{pingedEvent{}}}, nil
		},
	}
	eventHandlers := map[string][]service.EventHandler{
		"Pinged": {
			func(_ context.Context, _ service.UnitOfWork, _ domain.Event) error {
				panic("broken side effect")
			},
			func(_ context.Context, _ service.UnitOfWork, _ domain.Event) error {
				reached = true
				return nil
			},
		},
	}
	bus := service.NewMessageBus(memory.NewStore(), handlers, eventHandlers, quietLogger())

	_, err := bus.Handle(context.Background(), pingCommand{})
	require.NoError(t, err)
	assert.True(t, reached, "a panicking handler must not stop the remaining handlers")
}

func TestHandleCommandErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	handlers := map[string]service.CommandHandler{
		"Ping": func(_ context.Context, _ service.UnitOfWork, _ domain.Command) (service.Result, error) {
			return service.Result{}, boom
		},
	}
	bus := service.NewMessageBus(memory.NewStore(), handlers, nil, quietLogger())

	results, err := bus.Handle(context.Background(), pingCommand{})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, results)
}

func TestHandleUnregisteredCommandPanics(t *testing.T) {
	bus := service.NewMessageBus(memory.NewStore(), map[string]service.CommandHandler{}, nil, quietLogger())

	assert.Panics(t, func() {
		_, _ = bus.Handle(context.Background(), pingCommand{})
	})
}

func TestHandleRejectsUnknownMessageType(t *testing.T) {
	bus := service.NewMessageBus(memory.NewStore(), map[string]service.CommandHandler{}, nil, quietLogger())

	_, err := bus.Handle(context.Background(), "not a message")
	require.Error(t, err)
}
