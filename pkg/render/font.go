package render

import (
	contextPkg "ImageAnnotator/pkg/context"
	"fmt"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/net/context"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultFontSize     = 35
	defaultFontDPI      = 72
	scratchFontFileName = "custom_font.ttf"
)

// FontSource fetches a stored object into a local file.
type FontSource interface {
	DownloadFile(ctx context.Context, key string, path string) error
}

type FaceLoader interface {
	Load(ctx context.Context) (font.Face, error)
}

// FontLoader downloads a font asset into a scratch directory and parses it.
// The parsed font is kept after the first success; a failed load is tried
// again on the next call.
type FontLoader struct {
	source     FontSource
	key        string
	scratchDir string
	size       float64
	log        *logrus.Logger

	mu     sync.Mutex
	parsed *opentype.Font
}

func NewFontLoader(source FontSource, key string, scratchDir string, log *logrus.Logger) *FontLoader {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}

	return &FontLoader{
		source:     source,
		key:        key,
		scratchDir: scratchDir,
		size:       DefaultFontSize,
		log:        log,
	}
}

// Load returns a new face for every call; faces are not safe for
// concurrent use, the parsed font is.
func (l *FontLoader) Load(ctx context.Context) (font.Face, error) {
	parsed, err := l.font(ctx)
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    l.size,
		DPI:     defaultFontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}

	return face, nil
}

func (l *FontLoader) font(ctx context.Context) (*opentype.Font, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.parsed != nil {
		return l.parsed, nil
	}

	if l.source == nil {
		return nil, fmt.Errorf("no font source configured")
	}

	if err := os.MkdirAll(l.scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare font scratch dir: %w", err)
	}

	fontPath := filepath.Join(l.scratchDir, scratchFontFileName)
	if err := l.source.DownloadFile(ctx, l.key, fontPath); err != nil {
		return nil, fmt.Errorf("failed to download font %s: %w", l.key, err)
	}

	raw, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}

	parsed, err := opentype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", l.key, err)
	}

	l.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"font_key":   l.key,
		"path":       fontPath,
	}).Debug("Font asset loaded")

	l.parsed = parsed
	return parsed, nil
}
