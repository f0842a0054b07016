package service

import (
	"context"
	"fmt"
	"retouchbot/internal/core/domain"
	"retouchbot/internal/core/port"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session drives one chat's edit flow: a selected source image, an
// instruction, and the previews of both the source and the latest result.
// It accepts any file whose declared media type is image/*, keeps at most
// one edit request in flight, and guarantees that every preview handle it
// creates is released exactly once.
type Session struct {
	previews port.PreviewStore
	editor   port.ImageEditor
	l        zerolog.Logger

	mu            sync.Mutex
	source        *domain.SourceImage
	prompt        string
	sourcePreview *domain.Preview
	result        *domain.Preview
	state         domain.SubmissionState
	closed        bool
	cancelSubmit  context.CancelFunc
}

func NewSession(chatID int64, previews port.PreviewStore, editor port.ImageEditor) *Session {
	l := log.With().
		Int64("chatId", chatID).
		Str("handler", "session").
		Logger()

	return &Session{
		previews: previews,
		editor:   editor,
		state:    domain.Idle,
		l:        l,
	}
}

// SelectSource stores a new source image. Files whose declared type is not
// image/* are rejected with domain.ErrInvalidInputKind and the previous
// selection stays intact. On success the old source preview and any result
// are released and the result is cleared.
func (s *Session) SelectSource(data []byte, mime, name string) error {
	if !strings.HasPrefix(mime, "image/") {
		s.l.Debug().Str("mime", mime).Msg("rejecting non-image selection")
		return domain.ErrInvalidInputKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}

	preview, err := s.previews.Create(data, mime)
	if err != nil {
		return fmt.Errorf("failed to stage source preview: %w", err)
	}

	if s.sourcePreview != nil {
		s.previews.Release(*s.sourcePreview)
	}
	if s.result != nil {
		s.previews.Release(*s.result)
		s.result = nil
	}

	s.source = &domain.SourceImage{Data: data, MIME: mime, Name: name}
	s.sourcePreview = &preview

	s.l.Debug().Str("mime", mime).Int("bytes", len(data)).Msg("source selected")

	return nil
}

// SetPrompt stores the instruction text verbatim. Validation happens on
// submission, not here.
func (s *Session) SetPrompt(text string) {
	s.mu.Lock()
	s.prompt = text
	s.mu.Unlock()
}

func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

func (s *Session) Source() (domain.SourceImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return domain.SourceImage{}, false
	}
	return *s.source, true
}

func (s *Session) SourcePreview() (domain.Preview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sourcePreview == nil {
		return domain.Preview{}, false
	}
	return *s.sourcePreview, true
}

func (s *Session) Result() (domain.Preview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.Preview{}, false
	}
	return *s.result, true
}

func (s *Session) State() domain.SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CanSubmit reports whether a submission would pass its preconditions:
// a source is selected, the trimmed instruction is non-empty and no request
// is in flight.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed &&
		s.source != nil &&
		strings.TrimSpace(s.prompt) != "" &&
		s.state == domain.Idle
}

// Submit sends the selected image and the trimmed instruction to the edit
// API. A second call while one is in flight returns domain.ErrEditInFlight
// without side effects. On success the previous result preview is released
// and replaced; on failure the session keeps its previous result and
// returns to idle. The in-flight call is aborted by Teardown.
func (s *Session) Submit(ctx context.Context) (domain.Preview, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Preview{}, domain.ErrSessionClosed
	}
	if s.state == domain.Submitting {
		s.mu.Unlock()
		s.l.Debug().Msg("submission ignored, request in flight")
		return domain.Preview{}, domain.ErrEditInFlight
	}
	if s.source == nil {
		s.mu.Unlock()
		return domain.Preview{}, &domain.MissingInputError{Input: "image"}
	}
	prompt := strings.TrimSpace(s.prompt)
	if prompt == "" {
		s.mu.Unlock()
		return domain.Preview{}, &domain.MissingInputError{Input: "prompt"}
	}

	source := *s.source
	s.state = domain.Submitting
	ctx, cancel := context.WithCancel(ctx)
	s.cancelSubmit = cancel
	s.mu.Unlock()

	defer cancel()

	s.l.Debug().Str("mime", source.MIME).Int("promptLen", len(prompt)).Msg("submitting edit request")

	edited, err := s.editor.Edit(ctx, source, prompt)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = domain.Idle
	s.cancelSubmit = nil

	if s.closed {
		return domain.Preview{}, domain.ErrSessionClosed
	}
	if err != nil {
		return domain.Preview{}, fmt.Errorf("%w: %w", domain.ErrEditRequestFailed, err)
	}

	preview, err := s.previews.Create(edited.Data, edited.MIME)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("%w: failed to stage result preview: %w", domain.ErrEditRequestFailed, err)
	}

	if s.result != nil {
		s.previews.Release(*s.result)
	}
	s.result = &preview

	s.l.Debug().Str("mime", edited.MIME).Int("bytes", len(edited.Data)).Msg("edit request succeeded")

	return preview, nil
}

// Download returns the fixed result filename and the result preview, or
// domain.ErrNoResult when no edit has succeeded yet.
func (s *Session) Download() (string, domain.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", domain.Preview{}, domain.ErrSessionClosed
	}
	if s.result == nil {
		return "", domain.Preview{}, domain.ErrNoResult
	}

	return domain.ResultFileName(s.result.MIME), *s.result, nil
}

// Teardown releases both previews, aborts any in-flight submission and
// closes the session. It is idempotent; every operation on a closed session
// fails with domain.ErrSessionClosed.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true

	if s.cancelSubmit != nil {
		s.cancelSubmit()
		s.cancelSubmit = nil
	}

	sourcePreview := s.sourcePreview
	result := s.result
	s.source = nil
	s.sourcePreview = nil
	s.result = nil
	s.mu.Unlock()

	if sourcePreview != nil {
		s.previews.Release(*sourcePreview)
	}
	if result != nil {
		s.previews.Release(*result)
	}

	s.l.Debug().Msg("session torn down")
}
