// Package artifact handles the image payloads returned by the solving backend.
//
// The backend transports every image as a bare base64 string. An Image keeps
// that string as received and offers the two forms callers need: a data URL
// for direct embedding and decoded bytes for writing to disk.
package artifact

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	// Registered for DecodeConfig.
	_ "image/jpeg"
	_ "image/png"
)

// DataURLPrefix is prepended to the base64 payload for direct embedding.
const DataURLPrefix = "data:image/png;base64,"

// Image is a base64-encoded image payload.
type Image struct {
	Base64 string
}

// FromBase64 wraps a payload. A data URL prefix, if present, is stripped.
func FromBase64(s string) Image {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	return Image{Base64: s}
}

// Empty reports whether the payload is absent.
func (i Image) Empty() bool {
	return i.Base64 == ""
}

// DataURL returns the payload prefixed for direct embedding.
func (i Image) DataURL() string {
	return DataURLPrefix + i.Base64
}

// Bytes decodes the payload.
func (i Image) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(i.Base64)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}

// Size returns the intrinsic pixel dimensions of the image.
func (i Image) Size() (width, height int, err error) {
	data, err := i.Bytes()
	if err != nil {
		return 0, 0, err
	}
	return Size(bytes.NewReader(data))
}

// WriteFile decodes the payload and writes it to path.
func (i Image) WriteFile(path string) error {
	data, err := i.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// Size reads just enough of an encoded PNG or JPEG to report its dimensions.
func Size(r io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
