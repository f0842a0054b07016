package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"retouchbot/internal/core/domain"
	"strings"

	"github.com/rs/zerolog/log"
)

// HTTPEditor is the client for the image edit API: a multipart POST with
// the image under its declared media type and the instruction as a form
// field, answered with a binary image payload.
type HTTPEditor struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPEditor(endpoint, apiKey string) *HTTPEditor {
	return &HTTPEditor{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{},
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (e *HTTPEditor) Edit(ctx context.Context, image domain.SourceImage, prompt string) (*domain.EditResult, error) {
	if len(image.Data) == 0 {
		return nil, errors.New("missing image")
	}

	if len(prompt) == 0 {
		return nil, errors.New("missing prompt")
	}

	payload, contentType, err := buildEditForm(image, prompt)
	if err != nil {
		return nil, fmt.Errorf("error encoding edit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, payload)
	if err != nil {
		log.Error().Err(err).Msg("error creating POST request for edit API")
		return nil, err
	}

	req.Header.Set("Content-Type", contentType)
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	res, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing edit request: %w", err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading edit response: %w", err)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("edit API returned status %d: %s", res.StatusCode, errorMessage(body))
	}

	if len(body) == 0 {
		return nil, errors.New("empty body in edit response")
	}

	mime := responseMIME(res.Header.Get("Content-Type"), body)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("unexpected content type in edit response: %s", mime)
	}

	log.Debug().Int("bytes", len(body)).Str("mime", mime).Msg("edit response received")

	return &domain.EditResult{Data: body, MIME: mime}, nil
}

func buildEditForm(image domain.SourceImage, prompt string) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)

	filename := image.Name
	if filename == "" {
		filename = "image" + domain.ExtensionForMIME(image.MIME)
	}

	// CreatePart instead of CreateFormFile so the part carries the
	// declared media type rather than application/octet-stream
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", image.MIME)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}

	if _, err = part.Write(image.Data); err != nil {
		return nil, "", err
	}

	if err = mw.WriteField("prompt", prompt); err != nil {
		return nil, "", err
	}

	if err = mw.Close(); err != nil {
		return nil, "", err
	}

	return buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// responseMIME prefers the declared content type and falls back to
// sniffing when the server sends none or a generic one.
func responseMIME(declared string, body []byte) string {
	mime := declared
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = mime[:idx]
	}
	mime = strings.TrimSpace(mime)

	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(body)
		if idx := strings.Index(mime, ";"); idx != -1 {
			mime = strings.TrimSpace(mime[:idx])
		}
	}

	return mime
}

const maxErrorDetail = 200

// errorMessage extracts a human-readable message from an error body, which
// the API serves as JSON with a detail or error field.
func errorMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		if er.Detail != "" {
			return er.Detail
		}
		if er.Error != "" {
			return er.Error
		}
	}

	if len(body) == 0 {
		return "no error detail"
	}

	detail := string(body)
	if len(detail) > maxErrorDetail {
		detail = detail[:maxErrorDetail]
	}

	return detail
}
