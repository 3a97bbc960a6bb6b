package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"
)

func TestDecodeBase64ImageRoundTrip(t *testing.T) {
	u := New()

	payloads := [][]byte{
		{0xFF, 0xD8, 0xFF, 0xE0},
		[]byte("a"),
		[]byte("ab"),
		[]byte("abc"),
		bytes.Repeat([]byte{0x00, 0x7F, 0x80, 0xFF}, 257),
	}

	for _, payload := range payloads {
		encoded := base64.StdEncoding.EncodeToString(payload)

		decoded, err := u.DecodeBase64Image(encoded)
		if err != nil {
			t.Fatalf("DecodeBase64Image(%q) error: %v", encoded, err)
		}

		if !bytes.Equal(decoded, payload) {
			t.Errorf("decoded bytes differ for %q", encoded)
		}

		if reencoded := base64.StdEncoding.EncodeToString(decoded); reencoded != encoded {
			t.Errorf("re-encoded = %q, want %q", reencoded, encoded)
		}
	}
}

func TestDecodeBase64ImageRejects(t *testing.T) {
	u := New()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "not base64", input: "%%%not-base64%%%"},
		{name: "missing padding", input: "YWI"},
		{name: "empty", input: "", wantErr: ErrEmptyPayload},
		{
			name:    "too large",
			input:   base64.StdEncoding.EncodeToString(make([]byte, 5*1024*1024+1)),
			wantErr: ErrPayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := u.DecodeBase64Image(tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeBase64ImageDataURL(t *testing.T) {
	u := New()

	decoded, err := u.DecodeBase64Image("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("xyz")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(decoded) != "xyz" {
		t.Errorf("decoded = %q, want %q", decoded, "xyz")
	}
}

func TestDecodeImage(t *testing.T) {
	u := New()

	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	src.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	img, contentType, err := u.DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeImage error: %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("contentType = %q, want image/png", contentType)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("bounds = %v, want 4x3", b)
	}

	_, _, err = u.DecodeImage([]byte(strings.Repeat("text", 10)))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("error = %v, want ErrUnsupportedImage", err)
	}
}

func TestEncodeJPEG(t *testing.T) {
	u := New()

	data, err := u.EncodeJPEG(image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	if err != nil {
		t.Fatalf("EncodeJPEG error: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("output does not start with a JPEG SOI marker")
	}
}

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()

	id, err := u.NewULIDFromTimestamp(time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("len(id) = %d, want 26", len(id))
	}
}
