package command

import (
	"context"
	"fmt"
	"retouchbot/internal/core/domain"
	"retouchbot/internal/core/port"
	"strings"
	"time"
)

type Help struct {
	registry   port.CommandRegistry
	textSender port.TextSender
	command    string
}

func NewHelp(registry port.CommandRegistry, textSender port.TextSender, command string) *Help {
	return &Help{registry: registry, textSender: textSender, command: command}
}

func (h *Help) GetCommand() string {
	return h.command
}

var usage = map[string]string{
	"/pick":     "select the attached or replied-to image",
	"/prompt":   "set the edit instruction",
	"/edit":     "apply the instruction to the selected image",
	"/describe": "describe the selected image, or answer a question about it",
	"/download": "get the last result as a file",
	"/status":   "show the current edit session",
	"/reset":    "clear the edit session",
	"/help":     "this overview",
}

func (h *Help) Respond(ctx context.Context, _ time.Duration, message *domain.Message) error {
	sb := &strings.Builder{}

	_, err := sb.WriteString("retouchbot edits images on instruction. Send an image, tell it what to " +
		"change, get the result back:\n\n")
	if err != nil {
		return fmt.Errorf("failed to construct response: %w", err)
	}

	for _, cmd := range h.registry.ListCommands() {
		desc, ok := usage[cmd]
		if !ok {
			desc = ""
		}

		_, err = fmt.Fprintf(sb, "%s - %s\n", cmd, desc)
		if err != nil {
			return fmt.Errorf("failed to construct response: %w", err)
		}
	}

	_, err = h.textSender.SendMessageReply(ctx, message, sb.String())
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
