package command

import (
	"context"
	"errors"
	"fmt"
	"retouchbot/internal/core/domain"
	"retouchbot/internal/core/port"
	"retouchbot/internal/core/service"
	"time"

	"github.com/spf13/viper"

	"github.com/rs/zerolog/log"
)

type Describe struct {
	sessions   *service.SessionManager
	fetcher    port.FileFetcher
	converter  port.ImageConverter
	describer  port.ImageDescriber
	textSender port.TextSender
	track      service.Tracker
	cost       float64
	command    string
}

type DescribeParams struct {
	Sessions   *service.SessionManager
	Fetcher    port.FileFetcher
	Converter  port.ImageConverter
	Describer  port.ImageDescriber
	TextSender port.TextSender
	Track      service.Tracker
	Command    string
}

func NewDescribe(p DescribeParams) *Describe {
	return &Describe{
		sessions:   p.Sessions,
		fetcher:    p.Fetcher,
		converter:  p.Converter,
		describer:  p.Describer,
		textSender: p.TextSender,
		track:      p.Track,
		cost:       viper.GetFloat64("describe.cost_per_request"),
		command:    p.Command,
	}
}

func (d *Describe) GetCommand() string {
	return d.command
}

// Respond answers a question about the session's source image, or describes
// it when no question follows the command. An attached image is staged into
// the session first.
func (d *Describe) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", d.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session := d.sessions.Get(message.ChatID)

	if message.ImageURL != "" {
		if err := stageSource(ctx, session, d.fetcher, d.converter, message); err != nil {
			if errors.Is(err, domain.ErrInvalidInputKind) {
				_, sendErr := d.textSender.SendMessageReply(ctx, message,
					fmt.Sprintf("can't use that file, %s is not an image type", message.ImageMIME))
				if sendErr != nil {
					return d.textSender.NotifyAndReturnError(ctx,
						fmt.Errorf("error sending selection response: %w", sendErr), message)
				}
				return nil
			}
			return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error selecting image: %w", err), message)
		}
	}

	source, ok := session.Source()
	if !ok {
		_, err := d.textSender.SendMessageReply(ctx, message, "select an image first, attach one or use /pick")
		if err != nil {
			return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending reply: %w", err), message)
		}
		return nil
	}

	if !d.track.CheckLimit(ctx, message.ChatID) {
		l.Debug().Msg("spending limit reached")
		return nil
	}

	go d.textSender.SendChatAction(ctx, message.ChatID, domain.Typing)

	resp, err := d.describer.DescribeImage(ctx, source, ParseCommandArgs(message.Text))
	if err != nil {
		return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error describing image: %w", err), message)
	}

	d.track.AddCost(message.ChatID, d.cost)

	l.Debug().
		Str("model", resp.Metadata.Model).
		Int("completionTokens", resp.Metadata.CompletionTokens).
		Int("totalTokens", resp.Metadata.TotalTokens).
		Msg("generated description")

	_, err = d.textSender.SendMessageReply(ctx, message, resp.Response)
	if err != nil {
		return d.textSender.NotifyAndReturnError(ctx, fmt.Errorf("error sending description: %w", err), message)
	}

	return nil
}
