package command

import (
	"context"
	"errors"
	"fmt"
	"retouchbot/internal/core/domain"
	"retouchbot/internal/core/port"
	"retouchbot/internal/core/service"
	"time"

	"github.com/rs/zerolog/log"
)

type Download struct {
	sessions    *service.SessionManager
	previews    port.PreviewStore
	imageSender port.ImageSender
	textSender  port.TextSender
	command     string
}

func NewDownload(sessions *service.SessionManager,
	previews port.PreviewStore,
	imageSender port.ImageSender,
	textSender port.TextSender,
	command string) *Download {
	return &Download{sessions: sessions,
		previews:    previews,
		imageSender: imageSender,
		textSender:  textSender,
		command:     command}
}

func (d *Download) GetCommand() string {
	return d.command
}

// Respond sends the latest edit result as a document, keeping the original
// bytes instead of Telegram's photo re-compression. The filename is always
// the fixed result name.
func (d *Download) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", d.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session := d.sessions.Get(message.ChatID)

	filename, result, err := session.Download()
	if err != nil {
		if errors.Is(err, domain.ErrNoResult) || errors.Is(err, domain.ErrSessionClosed) {
			_, sendErr := d.textSender.SendMessageReply(ctx, message, "nothing to download yet, run /edit first")
			if sendErr != nil {
				return d.textSender.NotifyAndReturnError(ctx,
					fmt.Errorf("error sending download response: %w", sendErr), message)
			}
			return nil
		}
		return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error preparing download: %w", err), message)
	}

	go d.textSender.SendChatAction(ctx, message.ChatID, domain.UploadingDocument)

	file, err := d.previews.Load(result)
	if err != nil {
		return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error loading edited image: %w", err), message)
	}

	err = d.imageSender.SendDocumentReply(ctx, message, filename, file)
	if err != nil {
		return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending document: %w", err), message)
	}

	return nil
}
