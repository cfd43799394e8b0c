package app

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

// ThumbnailSize bounds both dimensions of a generated thumbnail.
const ThumbnailSize = 256

// PhotoFile is an image read from disk together with its generated thumbnail.
type PhotoFile struct {
	Image     []byte
	Thumbnail []byte
	Width     int
	Height    int
	Format    string
}

// LoadPhotoFile reads an image and builds a JPEG thumbnail for it.
// The original bytes are kept unchanged.
func LoadPhotoFile(path string) (*PhotoFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	return decodePhoto(data)
}

func decodePhoto(data []byte) (*PhotoFile, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	thumb := resize.Thumbnail(ThumbnailSize, ThumbnailSize, img, resize.Bilinear)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	b := img.Bounds()
	return &PhotoFile{
		Image:     data,
		Thumbnail: buf.Bytes(),
		Width:     b.Dx(),
		Height:    b.Dy(),
		Format:    format,
	}, nil
}
