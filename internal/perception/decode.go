package perception

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/vburojevic/simnav/internal/domain"
)

// Decode turns an encoded frame into an image
func Decode(f *domain.Frame) (image.Image, error) {
	if f == nil || len(f.Data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", domain.ErrPerception)
	}
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPerception, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", domain.ErrPerception)
	}
	return img, nil
}
