package port

import "context"

type FileFetcher interface {
	// Fetch downloads the file behind a URL and returns its bytes.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
