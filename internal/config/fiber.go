package config

import (
	"errors"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// the body carries a base64 image of up to 5MB decoded
const maxBodySize = 8 * 1024 * 1024

func NewFiber(logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:               "Image Annotator",
			BodyLimit:             maxBodySize,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			DisableStartupMessage: true,
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				code := fiber.StatusInternalServerError
				var fiberErr *fiber.Error
				if errors.As(err, &fiberErr) {
					code = fiberErr.Code
				}

				logger.WithFields(logrus.Fields{
					"path":   c.Path(),
					"status": code,
					"error":  err.Error(),
				}).Warn("Request rejected")

				return c.Status(code).JSON(fiber.Map{"statusCode": code, "error": err.Error()})
			},
		})

	return app
}
