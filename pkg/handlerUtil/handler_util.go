package handlerUtil

import (
	"ImageAnnotator/internal/api/annotation"
	"ImageAnnotator/pkg/log"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorResponse keeps the statusCode field every trigger response carries.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		StatusCode: fiber.StatusBadRequest,
		Error:      "Validation failed: " + err.Error(),
		Code:       "VALIDATION_ERROR",
	})
}

// HandleResult writes a processing result with the status code it carries.
// A run cut short by its deadline already reports that as its failure, and a
// run that finished is reported as such even when the deadline passed since.
func (h *ErrorHandler) HandleResult(c *fiber.Ctx, requestID string, result annotation.ProcessingResult) error {
	if !result.Succeeded() {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"path":       c.Path(),
			"stage":      result.Stage,
			"error":      result.Error,
		}).Warn("Image processing failed")
	}

	return c.Status(result.StatusCode).JSON(result.Payload())
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
