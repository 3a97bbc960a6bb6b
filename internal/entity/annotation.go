package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLabels caps how many label categories a single detection returns.
const MaxLabels = 10

type ImageAsset struct {
	Key         string
	Data        []byte
	ContentType string
}

// BoundingBox is expressed as fractions of the image width and height.
type BoundingBox struct {
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
}

type Label struct {
	Name        string       `json:"Name"`
	Confidence  float64      `json:"Confidence"`
	BoundingBox *BoundingBox `json:"BoundingBox,omitempty"`
}

// DetectedInstance and DetectedLabel mirror what a label detector reports
// before normalization.
type DetectedInstance struct {
	BoundingBox *BoundingBox `json:"BoundingBox"`
}

type DetectedLabel struct {
	Name       string             `json:"Name"`
	Confidence float64            `json:"Confidence"`
	Instances  []DetectedInstance `json:"Instances"`
}

type StorageBoundingBox struct {
	Left   decimal.Decimal `json:"Left"`
	Top    decimal.Decimal `json:"Top"`
	Width  decimal.Decimal `json:"Width"`
	Height decimal.Decimal `json:"Height"`
}

type StorageLabel struct {
	Name        string              `json:"Name"`
	Confidence  decimal.Decimal     `json:"Confidence"`
	BoundingBox *StorageBoundingBox `json:"BoundingBox,omitempty"`
}

type MetadataRecord struct {
	ImageKey     string         `json:"image_key"`
	ProcessedKey string         `json:"processed_key"`
	Labels       []StorageLabel `json:"labels"`
	ProcessedAt  time.Time      `json:"processed_at"`
}
