package command

import (
	"context"
	"fmt"
	"retouchbot/internal/core/domain"
	"retouchbot/internal/core/port"
	"retouchbot/internal/core/service"
	"time"

	"github.com/rs/zerolog/log"
)

type Reset struct {
	sessions   *service.SessionManager
	textSender port.TextSender
	command    string
}

func NewReset(sessions *service.SessionManager, textSender port.TextSender, command string) *Reset {
	return &Reset{sessions: sessions, textSender: textSender, command: command}
}

func (r *Reset) GetCommand() string {
	return r.command
}

// Respond tears the chat's session down, releasing its previews and
// aborting any edit still in flight.
func (r *Reset) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", r.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text := "no active edit session"
	if r.sessions.Reset(message.ChatID) {
		l.Debug().Msg("cleared edit session")
		text = "edit session cleared"
	}

	_, err := r.textSender.SendMessageReply(ctx, message, text)
	if err != nil {
		return r.textSender.NotifyAndReturnError(ctx,
			fmt.Errorf("error sending reset response: %w", err), message)
	}

	return nil
}
