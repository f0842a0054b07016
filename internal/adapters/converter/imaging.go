package converter

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

const DefaultMaxEdge = 2048
const jpegQuality = 90

// ImagingConverter bounds the dimensions of uploaded images. Oversized
// images are fitted into maxEdge x maxEdge with Lanczos resampling and
// re-encoded; JPEG stays JPEG, everything else becomes PNG. Payloads that
// cannot be decoded locally pass through untouched so the edit API gets to
// judge formats this process cannot read.
type ImagingConverter struct {
	maxEdge int
}

func NewImagingConverter(maxEdge int) *ImagingConverter {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}

	return &ImagingConverter{maxEdge: maxEdge}
}

func (c *ImagingConverter) Normalize(data []byte, mime string) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Str("mime", mime).Err(err).Msg("passing through undecodable image")
		return data, mime, nil
	}

	bounds := img.Bounds()
	if bounds.Dx() <= c.maxEdge && bounds.Dy() <= c.maxEdge {
		return data, mime, nil
	}

	log.Debug().
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("maxEdge", c.maxEdge).
		Str("format", format).
		Msg("downscaling oversized image")

	resized := imaging.Fit(img, c.maxEdge, c.maxEdge, imaging.Lanczos)

	buf := new(bytes.Buffer)

	if format == "jpeg" {
		if err = imaging.Encode(buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return nil, "", fmt.Errorf("error encoding downscaled jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	if err = imaging.Encode(buf, resized, imaging.PNG); err != nil {
		return nil, "", fmt.Errorf("error encoding downscaled png: %w", err)
	}

	return buf.Bytes(), "image/png", nil
}
