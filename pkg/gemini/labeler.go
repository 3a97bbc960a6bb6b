package gemini

import (
	"ImageAnnotator/internal/entity"
	"ImageAnnotator/pkg/detector"
	"encoding/json"
	"errors"
	"fmt"
	"golang.org/x/net/context"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"net/http"
	"strings"
)

const labelPrompt = `
Identify the main objects, scenes and concepts in this image, at most %d of them, most confident first.
For each one give its name, your confidence as a percentage between 0 and 100, and for objects that
are physically located in the image the bounding box of the most prominent instance.
Bounding box values are fractions of the image width and height between 0 and 1.

Output format:
{
	"Labels": [
		{
			"Name": "Dog",
			"Confidence": 98.4,
			"Instances": [
				{"BoundingBox": {"Left": 0.1, "Top": 0.2, "Width": 0.3, "Height": 0.4}}
			]
		},
		{
			"Name": "Outdoors",
			"Confidence": 91.2,
			"Instances": []
		}
	]
}

Respond with ONLY the JSON, no extra text.
`

type BlobReader interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type labeler struct {
	gemini IGemini
	blobs  BlobReader
}

// NewLabeler detects labels with Gemini. The image is read from blobs, so
// the bucket passed to DetectLabels must be the one blobs is bound to.
func NewLabeler(gemini IGemini, blobs BlobReader) detector.Labeler {
	return &labeler{
		gemini: gemini,
		blobs:  blobs,
	}
}

func (l *labeler) DetectLabels(ctx context.Context, bucket, key string, maxLabels int64) ([]entity.DetectedLabel, error) {
	data, err := l.blobs.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s for detection: %w", bucket, key, err)
	}

	result, err := l.gemini.AnalyzeImage(ctx, data, http.DetectContentType(data), fmt.Sprintf(labelPrompt, maxLabels))
	if err != nil {
		return nil, classify(err)
	}

	labels, err := parseLabelsResponse(result)
	if err != nil {
		return nil, err
	}

	if int64(len(labels)) > maxLabels {
		labels = labels[:maxLabels]
	}

	return labels, nil
}

type labelsResponse struct {
	Labels []entity.DetectedLabel `json:"Labels"`
}

func parseLabelsResponse(response string) ([]entity.DetectedLabel, error) {
	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")

	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, errors.New("cannot find valid JSON in response")
	}

	var parsed labelsResponse
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini labels: %w", err)
	}

	labels := make([]entity.DetectedLabel, 0, len(parsed.Labels))
	for _, label := range parsed.Labels {
		if strings.TrimSpace(label.Name) == "" {
			continue
		}

		instances := label.Instances[:0]
		for _, inst := range label.Instances {
			if inst.BoundingBox != nil && validBox(*inst.BoundingBox) {
				instances = append(instances, inst)
			}
		}
		label.Instances = instances
		labels = append(labels, label)
	}

	return labels, nil
}

func validBox(b entity.BoundingBox) bool {
	inUnit := func(v float64) bool { return v >= 0 && v <= 1 }
	return inUnit(b.Left) && inUnit(b.Top) && inUnit(b.Width) && inUnit(b.Height) && b.Width > 0 && b.Height > 0
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", detector.ErrThrottled, err)
	}

	if status.Code(err) == codes.ResourceExhausted {
		return fmt.Errorf("%w: %v", detector.ErrThrottled, err)
	}

	return err
}
