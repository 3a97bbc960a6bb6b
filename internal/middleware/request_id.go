package middleware

import (
	contextPkg "ImageAnnotator/pkg/context"
	"ImageAnnotator/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"time"
)

// NewRequestIDMiddleware keeps an inbound X-Request-ID or mints a ULID, and
// makes it visible to the handler's context.
func NewRequestIDMiddleware(u utils.IUtils) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(contextPkg.RequestIDHeader)

		if requestID == "" {
			requestID, _ = u.NewULIDFromTimestamp(time.Now())
		}

		c.Locals(contextPkg.RequestIDHeader, requestID)
		c.Set(contextPkg.RequestIDHeader, requestID)
		c.SetUserContext(contextPkg.WithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}
