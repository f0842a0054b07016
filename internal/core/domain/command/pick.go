package command

import (
	"context"
	"errors"
	"fmt"
	"retouchbot/internal/core/domain"
	"retouchbot/internal/core/port"
	"retouchbot/internal/core/service"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Pick struct {
	sessions   *service.SessionManager
	fetcher    port.FileFetcher
	converter  port.ImageConverter
	textSender port.TextSender
	command    string
}

func NewPick(sessions *service.SessionManager,
	fetcher port.FileFetcher,
	converter port.ImageConverter,
	textSender port.TextSender,
	command string) *Pick {
	return &Pick{sessions: sessions,
		fetcher:    fetcher,
		converter:  converter,
		textSender: textSender,
		command:    command}
}

func (p *Pick) GetCommand() string {
	return p.command
}

func (p *Pick) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", p.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if message.ImageURL == "" {
		_, err := p.textSender.SendMessageReply(ctx, message, "attach an image or reply to one to select it")
		if err != nil {
			return p.textSender.NotifyAndReturnError(ctx,
				fmt.Errorf("error sending selection response: %w", err), message)
		}
		return nil
	}

	session := p.sessions.Get(message.ChatID)

	if err := stageSource(ctx, session, p.fetcher, p.converter, message); err != nil {
		if errors.Is(err, domain.ErrInvalidInputKind) {
			_, sendErr := p.textSender.SendMessageReply(ctx, message,
				fmt.Sprintf("can't use that file, %s is not an image type", message.ImageMIME))
			if sendErr != nil {
				return p.textSender.NotifyAndReturnError(ctx,
					fmt.Errorf("error sending selection response: %w", sendErr), message)
			}
			return nil
		}
		return p.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error selecting image: %w", err), message)
	}

	text := "image selected"
	if session.CanSubmit() {
		text += ", run /edit to apply your instruction"
	} else {
		text += ", set an instruction with /prompt"
	}

	_, err := p.textSender.SendMessageReply(ctx, message, text)
	if err != nil {
		return p.textSender.NotifyAndReturnError(ctx,
			fmt.Errorf("error sending selection response: %w", err), message)
	}

	return nil
}

// stageSource downloads the attached image, normalizes it and selects it as
// the session's source. The declared media type is checked before anything is
// downloaded, so non-image files are rejected without a fetch.
func stageSource(ctx context.Context, session *service.Session, fetcher port.FileFetcher,
	converter port.ImageConverter, message *domain.Message) error {
	if !strings.HasPrefix(message.ImageMIME, "image/") {
		return domain.ErrInvalidInputKind
	}

	data, err := fetcher.Fetch(ctx, message.ImageURL)
	if err != nil {
		return fmt.Errorf("error downloading image: %w", err)
	}

	data, mime, err := converter.Normalize(data, message.ImageMIME)
	if err != nil {
		return fmt.Errorf("error normalizing image: %w", err)
	}

	return session.SelectSource(data, mime, message.ImageName)
}
