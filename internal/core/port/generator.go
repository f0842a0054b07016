package port

import (
	"context"
	"retouchbot/internal/core/domain"
)

type ImageDescriber interface {
	// DescribeImage answers a question about the given image, or produces a
	// general description when the question is empty.
	DescribeImage(ctx context.Context, image domain.SourceImage, question string) (domain.ModelResponse, error)
}
