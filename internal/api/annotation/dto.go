package annotation

import (
	"ImageAnnotator/internal/entity"
	"net/http"
)

type ProcessImageRequest struct {
	Filename string `json:"filename" validate:"required,max=1024"`
	File     string `json:"file" validate:"required"`
}

// Stage names a step of one processing run.
type Stage string

const (
	StageReceived   Stage = "received"
	StageStored     Stage = "stored"
	StageDetected   Stage = "detected"
	StageNormalized Stage = "normalized"
	StageRendered   Stage = "rendered"
	StagePersisted  Stage = "persisted"
	StageURLIssued  Stage = "url_issued"
	StageNotified   Stage = "notified"
	StageCompleted  Stage = "completed"
	StageFailed     Stage = "failed"
)

// ProcessingResult is the outcome of one run. ProcessedImageURL and Labels
// are set only on success, Error only on failure.
type ProcessingResult struct {
	StatusCode        int
	ProcessedImageURL string
	Labels            []entity.Label
	Error             string
	Stage             Stage
}

type SuccessPayload struct {
	StatusCode        int            `json:"statusCode"`
	ProcessedImageURL string         `json:"processed_image_url"`
	Labels            []entity.Label `json:"labels"`
}

type FailurePayload struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
}

func NewSuccessResult(url string, labels []entity.Label) ProcessingResult {
	if labels == nil {
		labels = []entity.Label{}
	}
	return ProcessingResult{
		StatusCode:        http.StatusOK,
		ProcessedImageURL: url,
		Labels:            labels,
		Stage:             StageCompleted,
	}
}

func NewFailureResult(err error) ProcessingResult {
	return ProcessingResult{
		StatusCode: http.StatusInternalServerError,
		Error:      err.Error(),
		Stage:      StageFailed,
	}
}

func (r ProcessingResult) Succeeded() bool {
	return r.StatusCode == http.StatusOK
}

// Payload is the wire form of the result.
func (r ProcessingResult) Payload() interface{} {
	if !r.Succeeded() {
		return FailurePayload{StatusCode: r.StatusCode, Error: r.Error}
	}

	labels := r.Labels
	if labels == nil {
		labels = []entity.Label{}
	}
	return SuccessPayload{
		StatusCode:        r.StatusCode,
		ProcessedImageURL: r.ProcessedImageURL,
		Labels:            labels,
	}
}
