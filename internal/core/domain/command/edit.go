package command

import (
	"context"
	"errors"
	"fmt"
	"retouchbot/internal/core/domain"
	"retouchbot/internal/core/port"
	"retouchbot/internal/core/service"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rs/zerolog/log"
)

type Edit struct {
	sessions    *service.SessionManager
	previews    port.PreviewStore
	fetcher     port.FileFetcher
	converter   port.ImageConverter
	imageSender port.ImageSender
	textSender  port.TextSender
	limiter     service.Limiter
	track       service.Tracker
	cost        float64
	command     string
}

type EditParams struct {
	Sessions    *service.SessionManager
	Previews    port.PreviewStore
	Fetcher     port.FileFetcher
	Converter   port.ImageConverter
	ImageSender port.ImageSender
	TextSender  port.TextSender
	Limiter     service.Limiter
	Track       service.Tracker
	Command     string
}

func NewEdit(p EditParams) *Edit {
	return &Edit{
		sessions:    p.Sessions,
		previews:    p.Previews,
		fetcher:     p.Fetcher,
		converter:   p.Converter,
		imageSender: p.ImageSender,
		textSender:  p.TextSender,
		limiter:     p.Limiter,
		track:       p.Track,
		cost:        viper.GetFloat64("edit.cost_per_request"),
		command:     p.Command,
	}
}

func (e *Edit) GetCommand() string {
	return e.command
}

// Respond submits the session's source and instruction to the edit API and
// replies with the edited image. An image attached to the command message
// and any text after the command word are staged into the session first, so
// "/edit make it night" on a photo runs in one step.
func (e *Edit) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", e.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session := e.sessions.Get(message.ChatID)

	if message.ImageURL != "" {
		if err := stageSource(ctx, session, e.fetcher, e.converter, message); err != nil {
			if errors.Is(err, domain.ErrInvalidInputKind) {
				_, sendErr := e.textSender.SendMessageReply(ctx, message,
					fmt.Sprintf("can't use that file, %s is not an image type", message.ImageMIME))
				if sendErr != nil {
					return e.textSender.NotifyAndReturnError(ctx,
						fmt.Errorf("error sending selection response: %w", sendErr), message)
				}
				return nil
			}
			return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error selecting image: %w", err), message)
		}
	}

	if args := ParseCommandArgs(message.Text); strings.TrimSpace(args) != "" {
		session.SetPrompt(args)
	}

	// only submittable requests consume a rate limit slot
	if _, ok := session.Source(); !ok {
		_, err := e.textSender.SendMessageReply(ctx, message, "send or reply to an image first, or use /pick")
		if err != nil {
			return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending reply: %w", err), message)
		}
		return nil
	}
	if strings.TrimSpace(session.Prompt()) == "" {
		_, err := e.textSender.SendMessageReply(ctx, message,
			"set an instruction first with /prompt, or pass it after /edit")
		if err != nil {
			return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending reply: %w", err), message)
		}
		return nil
	}

	if allowed, retryAfter := e.limiter.Allow(strconv.FormatInt(message.ChatID, 10)); !allowed {
		l.Debug().Dur("retryAfter", retryAfter).Msg("rate limit reached")

		_, err := e.textSender.SendMessageReply(ctx, message,
			fmt.Sprintf("rate limit reached, try again in %s", retryAfter.Truncate(time.Second)))
		if err != nil {
			return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending reply: %w", err), message)
		}
		return nil
	}

	if !e.track.CheckLimit(ctx, message.ChatID) {
		l.Debug().Msg("spending limit reached")
		return nil
	}

	go e.textSender.SendChatAction(ctx, message.ChatID, domain.UploadingPhoto)

	result, err := session.Submit(ctx)
	if err != nil {
		return e.handleSubmitError(ctx, err, message)
	}

	e.track.AddCost(message.ChatID, e.cost)

	file, err := e.previews.Load(result)
	if err != nil {
		return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error loading edited image: %w", err), message)
	}

	err = e.imageSender.SendImageFileReply(ctx, message, file)
	if err != nil {
		return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending edited image: %w", err), message)
	}

	return nil
}

func (e *Edit) handleSubmitError(ctx context.Context, err error, message *domain.Message) error {
	var missing *domain.MissingInputError

	switch {
	case errors.Is(err, domain.ErrEditInFlight):
		_, sendErr := e.textSender.SendMessageReply(ctx, message, "still working on the last edit, hang on")
		if sendErr != nil {
			return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending reply: %w", sendErr), message)
		}
		return nil
	case errors.As(err, &missing):
		var hint string
		if missing.Input == "image" {
			hint = "send or reply to an image first, or use /pick"
		} else {
			hint = "set an instruction first with /prompt, or pass it after /edit"
		}
		_, sendErr := e.textSender.SendMessageReply(ctx, message, hint)
		if sendErr != nil {
			return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending reply: %w", sendErr), message)
		}
		return nil
	default:
		return e.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error editing image: %w", err), message)
	}
}
