package annotationHandler

import (
	annotationService "ImageAnnotator/internal/api/annotation/service"
	"ImageAnnotator/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"time"
)

// DefaultRequestTimeout bounds one processing run started over HTTP.
const DefaultRequestTimeout = 30 * time.Second

type AnnotationHandler struct {
	log               *logrus.Logger
	validator         *validator.Validate
	middleware        middleware.Middleware
	annotationService annotationService.IAnnotationService
	timeout           time.Duration
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	as annotationService.IAnnotationService,
) *AnnotationHandler {
	return &AnnotationHandler{
		log:               log,
		validator:         validate,
		middleware:        middleware,
		annotationService: as,
		timeout:           DefaultRequestTimeout,
	}
}

func (h *AnnotationHandler) Start(srv fiber.Router) {
	images := srv.Group("/images")

	images.Post("", h.middleware.NewRateLimiter, h.ProcessImage)
}
