package upload

import (
	"bytes"
	"fmt"
	"image"

	// decoders for DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Prober reads pixel dimensions from an uploaded payload.
type Prober interface {
	Probe(data []byte) (width, height int, err error)
}

// ImageProber decodes image headers only.
type ImageProber struct{}

func (ImageProber) Probe(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
