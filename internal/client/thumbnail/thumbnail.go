// Package thumbnail renders small JPEG previews of uploaded images.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/nfnt/resize"
)

const (
	MaxWidth  = 200
	MaxHeight = 200
	Quality   = 70
)

var ErrNotImage = errors.New("not a decodable image")

// IsImage reports whether mimeType names an image format.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// Generate decodes data and returns a JPEG that fits in MaxWidth x MaxHeight,
// keeping the aspect ratio. Images already smaller are re-encoded as is.
func Generate(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotImage, err)
	}

	thumb := resize.Thumbnail(MaxWidth, MaxHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
