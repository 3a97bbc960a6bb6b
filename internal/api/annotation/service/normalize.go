package annotationService

import (
	"ImageAnnotator/internal/entity"
	"fmt"
	"github.com/shopspring/decimal"
	"math"
	"strconv"
)

// exactDecimal converts v through its shortest decimal text so the stored
// value is the number the detector printed, not its binary expansion.
func exactDecimal(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, fmt.Errorf("non-finite value %v", v)
	}
	return decimal.NewFromString(strconv.FormatFloat(v, 'f', -1, 64))
}

func toStorageBox(box *entity.BoundingBox) (*entity.StorageBoundingBox, error) {
	var err error
	out := &entity.StorageBoundingBox{}

	fields := []struct {
		dst *decimal.Decimal
		src float64
	}{
		{&out.Left, box.Left},
		{&out.Top, box.Top},
		{&out.Width, box.Width},
		{&out.Height, box.Height},
	}
	for _, f := range fields {
		if *f.dst, err = exactDecimal(f.src); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func fromStorageBox(box *entity.StorageBoundingBox) *entity.BoundingBox {
	return &entity.BoundingBox{
		Left:   box.Left.InexactFloat64(),
		Top:    box.Top.InexactFloat64(),
		Width:  box.Width.InexactFloat64(),
		Height: box.Height.InexactFloat64(),
	}
}

// normalizeLabel produces the stored and the display form of one detected
// label. Only the first located instance is kept; a label without one keeps
// its name and confidence and has no box.
func normalizeLabel(raw entity.DetectedLabel) (entity.StorageLabel, entity.Label, error) {
	confidence, err := exactDecimal(raw.Confidence)
	if err != nil {
		return entity.StorageLabel{}, entity.Label{}, fmt.Errorf("label %q confidence: %w", raw.Name, err)
	}

	stored := entity.StorageLabel{Name: raw.Name, Confidence: confidence}
	display := entity.Label{Name: raw.Name, Confidence: confidence.InexactFloat64()}

	if len(raw.Instances) > 0 && raw.Instances[0].BoundingBox != nil {
		box, err := toStorageBox(raw.Instances[0].BoundingBox)
		if err != nil {
			return entity.StorageLabel{}, entity.Label{}, fmt.Errorf("label %q bounding box: %w", raw.Name, err)
		}
		stored.BoundingBox = box
		display.BoundingBox = fromStorageBox(box)
	}

	return stored, display, nil
}

func normalizeLabels(raw []entity.DetectedLabel) ([]entity.StorageLabel, []entity.Label, error) {
	stored := make([]entity.StorageLabel, 0, len(raw))
	display := make([]entity.Label, 0, len(raw))

	for _, r := range raw {
		s, d, err := normalizeLabel(r)
		if err != nil {
			return nil, nil, err
		}
		stored = append(stored, s)
		display = append(display, d)
	}

	return stored, display, nil
}
