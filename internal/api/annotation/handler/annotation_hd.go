package annotationHandler

import (
	"ImageAnnotator/internal/api/annotation"
	contextPkg "ImageAnnotator/pkg/context"
	"ImageAnnotator/pkg/handlerUtil"
	"ImageAnnotator/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *AnnotationHandler) ProcessImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req annotation.ProcessImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"filename":   req.Filename,
		"path":       ctx.Path(),
	}).Debug("Processing image request")

	result := h.annotationService.ProcessImage(c, req)

	return errHandler.HandleResult(ctx, requestID, result)
}
