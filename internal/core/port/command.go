package port

import (
	"context"
	"retouchbot/internal/core/domain"
	"time"
)

type Command interface {
	// Respond handles a message addressed to this command and replies to the
	// originating chat, giving up after the specified timeout.
	Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error
	// GetCommand returns the slash command this handler is registered for.
	GetCommand() string
}

type CommandRegistry interface {
	// Register adds a command handler under its command string.
	Register(handler Command)
	// Get returns the handler registered for a command string, or an error
	// if none is registered.
	Get(command string) (Command, error)
	// ListCommands returns the registered command strings in sorted order.
	ListCommands() []string
}
