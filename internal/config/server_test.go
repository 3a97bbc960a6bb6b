package config

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewServerRequiresFiberAndLogger(t *testing.T) {
	if _, err := NewServer(WithLogger(quietLogger())); err == nil {
		t.Error("NewServer without fiber app returned no error")
	}
	if _, err := NewServer(WithFiber(NewFiber(quietLogger()))); err == nil {
		t.Error("NewServer without logger returned no error")
	}
}

func TestOptionOrdering(t *testing.T) {
	tests := []struct {
		name   string
		option ServerOption
	}{
		{name: "s3 before session", option: WithS3Client()},
		{name: "notifier before session", option: WithNotifier()},
		{name: "middleware before logger", option: WithMiddleware()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.option(&Server{}); err == nil {
				t.Error("option returned no error")
			}
		})
	}
}

func TestWithDetectorUnknownProvider(t *testing.T) {
	t.Setenv("DETECTOR_PROVIDER", "vision")

	err := WithDetector()(&Server{log: quietLogger()})
	if err == nil || !strings.Contains(err.Error(), "vision") {
		t.Errorf("error = %v, want unknown provider", err)
	}
}

func TestWithMetadataStoreUnknownDriver(t *testing.T) {
	t.Setenv("METADATA_DRIVER", "sqlite")

	if err := WithMetadataStore()(&Server{log: quietLogger()}); err == nil {
		t.Error("unknown driver returned no error")
	}
}

func TestServiceConfigFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		expiry     string
		wantExpiry time.Duration
		wantErr    bool
	}{
		{name: "defaults", wantExpiry: 0},
		{name: "custom", prefix: "annotated/", expiry: "600", wantExpiry: 600 * time.Second},
		{name: "not a number", expiry: "soon", wantErr: true},
		{name: "negative", expiry: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PROCESSED_PREFIX", tt.prefix)
			t.Setenv("PRESIGN_EXPIRY_SECONDS", tt.expiry)

			cfg, err := serviceConfigFromEnv()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.ProcessedPrefix != tt.prefix || cfg.PresignExpiry != tt.wantExpiry {
				t.Errorf("cfg = %+v", cfg)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {

	log := quietLogger()
	app := NewFiber(log)
	server, err := NewServer(
		WithFiber(app),
		WithLogger(log),
		WithValidator(NewValidator()),
		WithUtils(),
		WithMiddleware(),
		WithRenderer(),
	)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := server.RegisterHandler(); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(body), "Server is Healthy!") {
		t.Errorf("status = %d, body = %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("health check response has no request id")
	}
}

func TestFontKeyFromEnv(t *testing.T) {
	t.Setenv("FONT_KEY", "")
	if got := fontKeyFromEnv(); got != DefaultFontKey {
		t.Errorf("font key = %q, want %q", got, DefaultFontKey)
	}

	t.Setenv("FONT_KEY", "fonts/custom.ttf")
	if got := fontKeyFromEnv(); got != "fonts/custom.ttf" {
		t.Errorf("font key = %q, want fonts/custom.ttf", got)
	}
}
