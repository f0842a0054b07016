package handler

import (
	"context"
	"retouchbot/internal/core/domain"
	"retouchbot/internal/core/domain/command"
	"retouchbot/internal/core/port"
	"retouchbot/internal/core/service"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type Command struct {
	commandRegistry port.CommandRegistry
	auth            service.Authorizer
	timeout         time.Duration
}

func NewCommand(commandRegistry port.CommandRegistry, auth service.Authorizer, timeout time.Duration) *Command {
	return &Command{commandRegistry: commandRegistry, auth: auth, timeout: timeout}
}

// Handle dispatches an incoming update to the registered command handler.
// The handler runs detached from the update goroutine so slow commands do
// not stall update processing.
func (c *Command) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	message := update.Message

	text := message.Text
	if text == "" {
		text = message.Caption
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := command.ParseCommand(text)
	commandHandler, err := c.commandRegistry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	if !c.auth.IsAuthorized(ctx, message.Chat.ID) {
		return
	}

	imageURL, imageMIME, imageName := resolveImage(ctx, b, message)

	go func() {
		err := commandHandler.Respond(context.Background(), c.timeout, &domain.Message{
			ID:        message.ID,
			ChatID:    message.Chat.ID,
			Text:      text,
			Username:  getUserNameOrFirstName(message.From),
			ImageURL:  imageURL,
			ImageMIME: imageMIME,
			ImageName: imageName,
		})
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

type attachment struct {
	fileID string
	mime   string
	name   string
}

// findAttachment picks the image carried by the message itself, falling back
// to the message it replies to.
func findAttachment(message *models.Message) *attachment {
	if a := messageAttachment(message); a != nil {
		return a
	}

	if message.ReplyToMessage != nil {
		return messageAttachment(message.ReplyToMessage)
	}

	return nil
}

func messageAttachment(message *models.Message) *attachment {
	if len(message.Photo) > 0 {
		// photo sizes are ordered ascending, take the largest
		photo := message.Photo[len(message.Photo)-1]
		return &attachment{fileID: photo.FileID, mime: "image/jpeg"}
	}

	if message.Document != nil {
		return &attachment{
			fileID: message.Document.FileID,
			mime:   message.Document.MimeType,
			name:   message.Document.FileName,
		}
	}

	return nil
}

func resolveImage(ctx context.Context, b *bot.Bot, message *models.Message) (url, mime, name string) {
	a := findAttachment(message)
	if a == nil {
		return "", "", ""
	}

	f, err := b.GetFile(ctx, &bot.GetFileParams{FileID: a.fileID})
	if err != nil {
		log.Error().Err(err).Msg("error getting file from telegram api")
		return "", "", ""
	}

	return b.FileDownloadLink(f), a.mime, a.name
}

func getUserNameOrFirstName(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
