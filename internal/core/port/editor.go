package port

import (
	"context"
	"retouchbot/internal/core/domain"
)

type ImageEditor interface {
	// Edit submits an image and an instruction to the edit API and returns
	// the edited image bytes.
	Edit(ctx context.Context, image domain.SourceImage, prompt string) (*domain.EditResult, error)
}
