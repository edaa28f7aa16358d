package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/matrixnet/social-service/internal/domain"
)

// Message is either a domain.Command or a domain.Event.
type Message any

// Result is what a command handler hands back to the bus: the value
// returned to the caller plus any events that have no owning aggregate
// (file uploads). Aggregate events travel through the unit of work, not
// through Result.
type Result struct {
	Value  any
	Events []domain.Event
}

// CommandHandler handles exactly one command type within the given unit
// of work. Errors propagate to the bus caller untouched.
type CommandHandler func(ctx context.Context, uow UnitOfWork, cmd domain.Command) (Result, error)

// EventHandler reacts to an event. Errors are logged and swallowed by the
// bus; a failing side effect never aborts the dispatch loop.
type EventHandler func(ctx context.Context, uow UnitOfWork, evt domain.Event) error

// MessageBus dispatches commands and events to their handlers and feeds
// events produced along the way back into its queue until it is empty.
//
// A bus is built once at process start and its handler tables never
// change afterwards. Each Handle call begins its own unit-of-work scope,
// so concurrent calls from the transport layer are isolated by the
// underlying store's transaction isolation, nothing more.
type MessageBus struct {
	starter         Starter
	commandHandlers map[string]CommandHandler
	eventHandlers   map[string][]EventHandler
	logger          *logrus.Logger
}

func NewMessageBus(
	starter Starter,
	commandHandlers map[string]CommandHandler,
	eventHandlers map[string][]EventHandler,
	logger *logrus.Logger,
) *MessageBus {
	return &MessageBus{
		starter:         starter,
		commandHandlers: commandHandlers,
		eventHandlers:   eventHandlers,
		logger:          logger,
	}
}

// Handle dispatches one message and everything it causes, in FIFO order.
// It returns one result per command processed, in processing order;
// events contribute nothing to the result list.
//
// A command handler error aborts the loop and propagates. Event handler
// errors are logged and the loop continues.
func (b *MessageBus) Handle(ctx context.Context, msg Message) ([]any, error) {
	uow, err := b.starter.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin unit of work: %w", err)
	}
	defer func() { _ = uow.Close(ctx) }()

	var results []any
	queue := []Message{msg}

	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]

		switch m := m.(type) {
		case domain.Command:
			res, err := b.handleCommand(ctx, uow, m)
			if err != nil {
				return nil, err
			}
			results = append(results, res.Value)
			queue = appendMessages(queue, res.Events)
			queue = appendMessages(queue, CollectNewEvents(uow))
		case domain.Event:
			queue = b.handleEvent(ctx, uow, m, queue)
		default:
			return nil, fmt.Errorf("message %T is neither a command nor an event", m)
		}
	}

	return results, nil
}

func (b *MessageBus) handleCommand(ctx context.Context, uow UnitOfWork, cmd domain.Command) (Result, error) {
	b.logger.WithField("command", cmd.CommandName()).Debug("handling command")
	handler, ok := b.commandHandlers[cmd.CommandName()]
	if !ok {
		// A missing command handler is a wiring defect, not a runtime
		// condition to recover from.
		panic(fmt.Sprintf("messagebus: no handler registered for command %s", cmd.CommandName()))
	}
	return handler(ctx, uow, cmd)
}

func (b *MessageBus) handleEvent(ctx context.Context, uow UnitOfWork, evt domain.Event, queue []Message) []Message {
	for _, handler := range b.eventHandlers[evt.EventName()] {
		b.logger.WithField("event", evt.EventName()).Debug("handling event")
		if err := b.invokeEventHandler(ctx, uow, evt, handler); err != nil {
			b.logger.WithError(err).WithField("event", evt.EventName()).
				Error("event handler failed")
		}
		queue = appendMessages(queue, CollectNewEvents(uow))
	}
	return queue
}

// invokeEventHandler converts handler panics into errors so a broken side
// effect cannot take down the dispatch loop.
func (b *MessageBus) invokeEventHandler(ctx context.Context, uow UnitOfWork, evt domain.Event, handler EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panicked: %v", r)
		}
	}()
	return handler(ctx, uow, evt)
}

func appendMessages(queue []Message, evts []domain.Event) []Message {
	for _, e := range evts {
		queue = append(queue, e)
	}
	return queue
}
