package domain

import "strings"

// SubmissionState tracks whether an edit session currently has a request in
// flight. A session holds at most one in-flight request.
type SubmissionState string

const (
	Idle       SubmissionState = "idle"
	Submitting SubmissionState = "submitting"
)

// SourceImage is the image a session will submit for editing, together with
// the media type its picker declared. The payload bytes are never inspected
// for validity; the declared type alone decides whether a file is accepted.
type SourceImage struct {
	Data []byte
	MIME string
	Name string
}

// EditResult is the binary payload returned by the edit API.
type EditResult struct {
	Data []byte
	MIME string
}

// Preview is a revocable handle to displayable image bytes. Handles are
// materialized and released through a PreviewStore; holding a released
// handle is an error on the holder's side.
type Preview struct {
	ID   string
	Path string
	MIME string
}

type Message struct {
	ID        int
	ChatID    int64
	Username  string
	Text      string
	ImageURL  string
	ImageMIME string
	ImageName string
}

type Action string

const (
	Typing            Action = "typing"
	UploadingPhoto    Action = "upload_photo"
	UploadingDocument Action = "upload_document"
)

type ModelResponse struct {
	Response string
	Metadata ResponseMetadata
}

type ResponseMetadata struct {
	Model            string
	CompletionTokens int
	TotalTokens      int
}

// ResultBaseName is the stable stem of every downloaded result; only the
// extension varies with the payload's media type.
const ResultBaseName = "edited"

// ResultFileName returns the fixed download filename for a result of the
// given media type.
func ResultFileName(mime string) string {
	return ResultBaseName + ExtensionForMIME(mime)
}

// ExtensionForMIME maps a media type to a file extension, with a generic
// fallback for subtypes without a conventional one.
func ExtensionForMIME(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
