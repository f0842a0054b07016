package command

import (
	"context"
	"errors"
	"retouchbot/internal/core/domain"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockDescriber struct {
	response domain.ModelResponse
	err      error
	question string
	image    domain.SourceImage
	calls    int
}

func (m *MockDescriber) DescribeImage(_ context.Context,
	image domain.SourceImage, question string) (domain.ModelResponse, error) {
	m.calls++
	m.image = image
	m.question = question
	return m.response, m.err
}

func TestDescribeSuccess(t *testing.T) {
	viper.Set("describe.cost_per_request", 0.01)

	store := &MockPreviewStore{}
	sessions := newTestSessions(store, nil)
	describer := &MockDescriber{response: domain.ModelResponse{
		Response: "A corgi on a beach.",
		Metadata: domain.ResponseMetadata{Model: "openai/gpt-4.1", CompletionTokens: 6, TotalTokens: 20},
	}}
	mt := &MockTextSender{}
	track := &MockTracker{}

	require.NoError(t, sessions.Get(1).SelectSource([]byte("pixels"), "image/png", "corgi.png"))

	dh := NewDescribe(DescribeParams{
		Sessions:   sessions,
		Fetcher:    &MockFetcher{},
		Converter:  &MockConverter{},
		Describer:  describer,
		TextSender: mt,
		Track:      track,
		Command:    "/describe",
	})

	err := dh.Respond(t.Context(), time.Second,
		&domain.Message{ID: 1, ChatID: 1, Text: "/describe what breed is this?"})
	require.NoError(t, err)

	assert.Equal(t, "A corgi on a beach.", mt.Message)
	assert.Equal(t, "what breed is this?", describer.question)
	assert.Equal(t, []byte("pixels"), describer.image.Data)
	assert.InDelta(t, 0.01, track.cost, 0.001)
}

func TestDescribeStagesInlineImage(t *testing.T) {
	store := &MockPreviewStore{}
	sessions := newTestSessions(store, nil)
	fetcher := &MockFetcher{data: []byte("pixels")}
	describer := &MockDescriber{response: domain.ModelResponse{Response: "A sunset."}}
	mt := &MockTextSender{}

	dh := NewDescribe(DescribeParams{
		Sessions:   sessions,
		Fetcher:    fetcher,
		Converter:  &MockConverter{},
		Describer:  describer,
		TextSender: mt,
		Track:      &MockTracker{},
		Command:    "/describe",
	})

	msg := &domain.Message{
		ID:        1,
		ChatID:    1,
		Text:      "/describe",
		ImageURL:  "http://files/sunset",
		ImageMIME: "image/jpeg",
	}

	err := dh.Respond(t.Context(), time.Second, msg)
	require.NoError(t, err)

	assert.Equal(t, "http://files/sunset", fetcher.fetched)
	assert.Equal(t, 1, describer.calls)
	assert.Empty(t, describer.question)
	assert.Equal(t, "A sunset.", mt.Message)
}

func TestDescribeWithoutImage(t *testing.T) {
	sessions := newTestSessions(&MockPreviewStore{}, nil)
	describer := &MockDescriber{}
	mt := &MockTextSender{}

	dh := NewDescribe(DescribeParams{
		Sessions:   sessions,
		Fetcher:    &MockFetcher{},
		Converter:  &MockConverter{},
		Describer:  describer,
		TextSender: mt,
		Track:      &MockTracker{},
		Command:    "/describe",
	})

	err := dh.Respond(t.Context(), time.Second, &domain.Message{ID: 1, ChatID: 1, Text: "/describe"})
	require.NoError(t, err)

	assert.Equal(t, "select an image first, attach one or use /pick", mt.Message)
	assert.Zero(t, describer.calls)
}

func TestDescribeApiError(t *testing.T) {
	store := &MockPreviewStore{}
	sessions := newTestSessions(store, nil)
	describer := &MockDescriber{err: errors.New("api down")}
	mt := &MockTextSender{}
	track := &MockTracker{}

	require.NoError(t, sessions.Get(1).SelectSource([]byte("pixels"), "image/png", ""))

	dh := NewDescribe(DescribeParams{
		Sessions:   sessions,
		Fetcher:    &MockFetcher{},
		Converter:  &MockConverter{},
		Describer:  describer,
		TextSender: mt,
		Track:      track,
		Command:    "/describe",
	})

	err := dh.Respond(t.Context(), time.Second, &domain.Message{ID: 1, ChatID: 1, Text: "/describe"})
	require.Error(t, err)

	assert.Contains(t, mt.Message, "error describing image")
	assert.Zero(t, track.cost)
}

func TestDescribeSpendLimitReached(t *testing.T) {
	store := &MockPreviewStore{}
	sessions := newTestSessions(store, nil)
	describer := &MockDescriber{}
	mt := &MockTextSender{}

	require.NoError(t, sessions.Get(1).SelectSource([]byte("pixels"), "image/png", ""))

	dh := NewDescribe(DescribeParams{
		Sessions:   sessions,
		Fetcher:    &MockFetcher{},
		Converter:  &MockConverter{},
		Describer:  describer,
		TextSender: mt,
		Track:      &MockTracker{limitReached: true},
		Command:    "/describe",
	})

	err := dh.Respond(t.Context(), time.Second, &domain.Message{ID: 1, ChatID: 1, Text: "/describe"})
	require.NoError(t, err)

	assert.Empty(t, mt.Message)
	assert.Zero(t, describer.calls)
}
