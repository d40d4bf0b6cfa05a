package pixelbin

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Preprocess повышает шанс пройти валидацию Pixelbin:
// авто-ориентация по EXIF, downscale до 1024 по большей стороне,
// лёгкое повышение контраста, JPEG quality 90.
func Preprocess(img []byte) ([]byte, error) {
	decoded, err := imaging.Decode(bytes.NewReader(img), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("pixelbin preprocess: decode: %w", err)
	}

	const maxSide = 1024
	b := decoded.Bounds()
	if b.Dx() > maxSide || b.Dy() > maxSide {
		decoded = imaging.Fit(decoded, maxSide, maxSide, imaging.Lanczos)
	}

	decoded = imaging.AdjustContrast(decoded, 15)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, decoded, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("pixelbin preprocess: encode: %w", err)
	}
	return buf.Bytes(), nil
}
