package storage

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedImage is returned for uploads that are not jpg or png.
var ErrUnsupportedImage = errors.New("unsupported image type")

// ImageExtensions lists the accepted upload extensions.
var ImageExtensions = []string{"jpg", "png", "jpeg"}

var imageMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// DetectImage checks the extension of name and sniffs the content of r.
// r is rewound before returning so the caller can store it.
func DetectImage(r io.ReadSeeker, name string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	allowed := false
	for _, e := range ImageExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", ErrUnsupportedImage
	}

	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("sniff %s: %w", name, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind %s: %w", name, err)
	}

	// "image/jpeg" may carry parameters on some detectors; compare the base type.
	base := strings.TrimSpace(strings.SplitN(mtype.String(), ";", 2)[0])
	if !imageMIMEs[base] {
		return "", ErrUnsupportedImage
	}
	return base, nil
}
