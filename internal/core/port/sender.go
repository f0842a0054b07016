package port

import (
	"context"
	"retouchbot/internal/core/domain"
)

type TextSender interface {
	// SendMessageReply sends a text reply to the given message, chunking
	// overlong texts, and returns the last sent message ID.
	SendMessageReply(ctx context.Context, message *domain.Message, text string) (int, error)
	// SendChatAction repeatedly transmits a chat action (typing, uploading)
	// until the context is done.
	SendChatAction(ctx context.Context, chatID int64, action domain.Action)
	// NotifyAndReturnError notifies the chat about an error and returns it
	// for the caller to propagate.
	NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error
}

type ImageSender interface {
	// SendImageFileReply sends image bytes as a photo reply.
	SendImageFileReply(ctx context.Context, message *domain.Message, file []byte) error
	// SendDocumentReply sends file bytes as a document reply under the given
	// filename, preserving the original bytes without Telegram's photo
	// re-compression.
	SendDocumentReply(ctx context.Context, message *domain.Message, filename string, file []byte) error
}
