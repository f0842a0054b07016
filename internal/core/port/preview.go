package port

import "retouchbot/internal/core/domain"

type PreviewStore interface {
	// Create materializes image bytes as a displayable preview and returns a
	// revocable handle to it.
	Create(data []byte, mime string) (domain.Preview, error)
	// Load returns the bytes behind a preview handle.
	Load(preview domain.Preview) ([]byte, error)
	// Release revokes a preview handle and frees its backing storage.
	// Failures are logged, not returned.
	Release(preview domain.Preview)
}
