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

type Status struct {
	sessions   *service.SessionManager
	track      service.Tracker
	textSender port.TextSender
	command    string
}

func NewStatus(sessions *service.SessionManager,
	track service.Tracker,
	textSender port.TextSender,
	command string) *Status {
	return &Status{sessions: sessions,
		track:      track,
		textSender: textSender,
		command:    command}
}

func (s *Status) GetCommand() string {
	return s.command
}

const kb = 1024
const statusTemplate = `source: %s
instruction: %s
state: %s
ready to edit: %t
result: %s
spent today: $%.2f`

func (s *Status) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", s.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session := s.sessions.Get(message.ChatID)

	sourceLine := "none, attach an image or use /pick"
	if source, ok := session.Source(); ok {
		name := source.Name
		if name == "" {
			name = source.MIME
		}
		sourceLine = fmt.Sprintf("%s (%d KB)", name, len(source.Data)/kb)
	}

	instruction := session.Prompt()
	if strings.TrimSpace(instruction) == "" {
		instruction = "none, set one with /prompt"
	}

	resultLine := "none yet"
	if filename, _, err := session.Download(); err == nil {
		resultLine = filename + ", get it with /download"
	}

	_, err := s.textSender.SendMessageReply(ctx, message, fmt.Sprintf(statusTemplate,
		sourceLine,
		instruction,
		session.State(),
		session.CanSubmit(),
		resultLine,
		s.track.GetSpent(message.ChatID)))
	if err != nil {
		return s.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending status: %w", err), message)
	}

	return nil
}
