package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultFileName(t *testing.T) {
	type TestCase struct {
		description string
		mime        string
		want        string
	}

	testCases := []TestCase{
		{
			description: "png",
			mime:        "image/png",
			want:        "edited.png",
		},
		{
			description: "jpeg",
			mime:        "image/jpeg",
			want:        "edited.jpg",
		},
		{
			description: "jpg alias",
			mime:        "image/jpg",
			want:        "edited.jpg",
		},
		{
			description: "webp",
			mime:        "image/webp",
			want:        "edited.webp",
		},
		{
			description: "gif",
			mime:        "image/gif",
			want:        "edited.gif",
		},
		{
			description: "ignores case",
			mime:        "IMAGE/PNG",
			want:        "edited.png",
		},
		{
			description: "generic fallback",
			mime:        "image/tiff",
			want:        "edited.bin",
		},
		{
			description: "empty type",
			mime:        "",
			want:        "edited.bin",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			got := ResultFileName(testCase.mime)

			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestMissingInputError(t *testing.T) {
	err := &MissingInputError{Input: "image"}

	assert.Equal(t, "missing input: image", err.Error())
}

func TestMissingInputErrorMatchesThroughWrap(t *testing.T) {
	wrapped := fmt.Errorf("submit failed: %w", &MissingInputError{Input: "prompt"})

	var missing *MissingInputError
	assert.True(t, errors.As(wrapped, &missing))
	assert.Equal(t, "prompt", missing.Input)
}
