package render

import (
	"ImageAnnotator/internal/entity"
	contextPkg "ImageAnnotator/pkg/context"
	"fmt"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/net/context"
	"image"
	"image/color"
	"math"
)

const (
	OutlineWidth = 5
	TextOffset   = 45
)

var BoxColor = color.NRGBA{R: 255, A: 255}

type IRenderer interface {
	Render(ctx context.Context, src image.Image, labels []entity.Label) *image.NRGBA
}

type renderer struct {
	fonts FaceLoader
	log   *logrus.Logger
}

func New(fonts FaceLoader, log *logrus.Logger) IRenderer {
	return &renderer{
		fonts: fonts,
		log:   log,
	}
}

// Render draws every located label onto a copy of src. A font that cannot
// be loaded is replaced by the built-in face; rendering itself never fails.
func (r *renderer) Render(ctx context.Context, src image.Image, labels []entity.Label) *image.NRGBA {
	dst := imaging.Clone(src)

	face := r.loadFace(ctx)
	defer face.Close()

	width := float64(dst.Bounds().Dx())
	height := float64(dst.Bounds().Dy())
	origin := dst.Bounds().Min

	for _, label := range labels {
		box := label.BoundingBox
		if box == nil {
			continue
		}

		left := origin.X + round(box.Left*width)
		top := origin.Y + round(box.Top*height)
		right := origin.X + round((box.Left+box.Width)*width)
		bottom := origin.Y + round((box.Top+box.Height)*height)

		drawOutline(dst, image.Rect(left, top, right, bottom), OutlineWidth, BoxColor)
		drawLabel(dst, face, image.Pt(left, top-TextOffset), labelText(label))
	}

	return dst
}

func (r *renderer) loadFace(ctx context.Context) font.Face {
	if r.fonts != nil {
		face, err := r.fonts.Load(ctx)
		if err == nil {
			return face
		}

		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Font asset unavailable, falling back to default font")
	}

	return basicfont.Face7x13
}

func labelText(label entity.Label) string {
	return fmt.Sprintf("%s (%.2f%%)", label.Name, label.Confidence)
}

// drawOutline strokes rect inward, treating Max as an inclusive corner.
func drawOutline(dst *image.NRGBA, rect image.Rectangle, width int, c color.NRGBA) {
	for i := 0; i < width; i++ {
		x0, y0 := rect.Min.X+i, rect.Min.Y+i
		x1, y1 := rect.Max.X-i, rect.Max.Y-i
		if x0 > x1 || y0 > y1 {
			return
		}

		for x := x0; x <= x1; x++ {
			dst.SetNRGBA(x, y0, c)
			dst.SetNRGBA(x, y1, c)
		}
		for y := y0; y <= y1; y++ {
			dst.SetNRGBA(x0, y, c)
			dst.SetNRGBA(x1, y, c)
		}
	}
}

// drawLabel places text with its ascender line at pt.
func drawLabel(dst *image.NRGBA, face font.Face, pt image.Point, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(BoxColor),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(pt.X), Y: fixed.I(pt.Y) + face.Metrics().Ascent},
	}
	d.DrawString(text)
}

func round(v float64) int {
	return int(math.Round(v))
}
