package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"realtime-hub/internal/logsink"
)

// LogHandler receives client-side debug logs and hands them to the
// sink. The endpoint always answers 204 so client logging never
// becomes a failure path in the app.
type LogHandler struct {
	sink *logsink.Sink
}

// NewLogHandler LogHandler 생성
func NewLogHandler(s *logsink.Sink) *LogHandler {
	return &LogHandler{sink: s}
}

// Append handles POST /log.
func (h *LogHandler) Append(c *fiber.Ctx) error {
	var e logsink.Entry
	if err := c.BodyParser(&e); err != nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err := h.sink.Append(e); err != nil {
		log.Printf("[LogSink] Append failed: %v", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
