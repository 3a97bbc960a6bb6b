package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
)

var (
	ErrEmptyPayload     = errors.New("image payload is empty")
	ErrPayloadTooLarge  = errors.New("image payload exceeds size limit")
	ErrUnsupportedImage = errors.New("payload is not a supported image")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	DecodeBase64Image(encoded string) ([]byte, error)
	DecodeImage(data []byte) (image.Image, string, error)
	EncodeJPEG(img image.Image) ([]byte, error)
}

type utils struct {
	maxFileSize int64
	jpegQuality int
}

func New() IUtils {
	return &utils{
		maxFileSize: 5 * 1024 * 1024,
		jpegQuality: 75,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// DecodeBase64Image strictly decodes a standard-alphabet, padded payload.
// A data URL prefix ("data:image/jpeg;base64,") is tolerated.
func (u *utils) DecodeBase64Image(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}

	data, err := base64.StdEncoding.Strict().DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	if int64(len(data)) > u.maxFileSize {
		return nil, ErrPayloadTooLarge
	}

	return data, nil
}

// DecodeImage decodes data and reports its sniffed MIME type.
func (u *utils) DecodeImage(data []byte) (image.Image, string, error) {
	contentType := http.DetectContentType(data)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	return img, contentType, nil
}

func (u *utils) EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(u.jpegQuality)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
