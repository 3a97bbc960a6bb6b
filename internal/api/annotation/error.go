package annotation

import (
	"ImageAnnotator/pkg/response"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation  = response.NewError(http.StatusBadRequest, "invalid image payload")
	ErrDetection   = response.NewError(http.StatusBadGateway, "label detection failed")
	ErrPersistence = response.NewError(http.StatusInternalServerError, "failed to persist processing result")
	ErrSigning     = response.NewError(http.StatusInternalServerError, "failed to issue access url")
	ErrUnknown     = response.NewError(http.StatusInternalServerError, "unexpected processing error")
)

// StageError records which pipeline stage failed and the error class it
// belongs to. Both the class and the cause match with errors.Is.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func NewStageError(stage Stage, kind error, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// KindOf returns the error class err belongs to, ErrUnknown when none.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrDetection, ErrPersistence, ErrSigning} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrUnknown
}
