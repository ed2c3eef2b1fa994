package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Content types sent to the OCR service
const (
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"
)

// NormalizeImage prepares an embedded page image for upload. JPEG and PNG
// pass through unchanged; TIFF and BMP scans are re-encoded as PNG since the
// OCR service decodes only the common web formats.
func NormalizeImage(data []byte, fileType string) ([]byte, string, error) {
	var decode func([]byte) (image.Image, error)

	switch strings.ToLower(strings.TrimPrefix(fileType, ".")) {
	case "png":
		return data, ContentTypePNG, nil
	case "jpg", "jpeg":
		return data, ContentTypeJPEG, nil
	case "tif", "tiff":
		decode = func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) }
	case "bmp":
		decode = func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) }
	default:
		return nil, "", fmt.Errorf("unsupported image type %q", fileType)
	}

	img, err := decode(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s image: %w", fileType, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), ContentTypePNG, nil
}
