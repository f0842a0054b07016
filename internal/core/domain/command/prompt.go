package command

import (
	"context"
	"fmt"
	"retouchbot/internal/core/domain"
	"retouchbot/internal/core/port"
	"retouchbot/internal/core/service"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Prompt struct {
	sessions   *service.SessionManager
	textSender port.TextSender
	command    string
}

func NewPrompt(sessions *service.SessionManager, textSender port.TextSender, command string) *Prompt {
	return &Prompt{sessions: sessions, textSender: textSender, command: command}
}

func (p *Prompt) GetCommand() string {
	return p.command
}

// Respond stores everything after the command word as the session's edit
// instruction, exactly as typed. Calling it without arguments clears the
// instruction.
func (p *Prompt) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", p.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := ParseCommandArgs(message.Text)

	session := p.sessions.Get(message.ChatID)
	session.SetPrompt(args)

	var text string
	if strings.TrimSpace(args) == "" {
		text = "instruction cleared"
	} else {
		text = "instruction set"
		if session.CanSubmit() {
			text += ", run /edit to apply it"
		} else {
			text += ", select an image with /pick"
		}
	}

	_, err := p.textSender.SendMessageReply(ctx, message, text)
	if err != nil {
		return p.textSender.NotifyAndReturnError(ctx,
			fmt.Errorf("error sending instruction response: %w", err), message)
	}

	return nil
}
