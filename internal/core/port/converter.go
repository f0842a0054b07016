package port

type ImageConverter interface {
	// Normalize prepares image bytes for upload, downscaling oversized
	// images and re-encoding them where needed. It returns the effective
	// bytes and media type; payloads it cannot decode pass through
	// unchanged so unusual image formats are never rejected locally.
	Normalize(data []byte, mime string) ([]byte, string, error)
}
