package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"realtime-hub/internal/hub"
	"realtime-hub/internal/pairing"
)

// HealthHandler 헬스체크 핸들러
type HealthHandler struct {
	hub     *hub.Hub
	pairing *pairing.Registry
}

// NewHealthHandler HealthHandler 생성
func NewHealthHandler(h *hub.Hub, pr *pairing.Registry) *HealthHandler {
	return &HealthHandler{hub: h, pairing: pr}
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Rooms      int    `json:"rooms"`
	PairTokens int    `json:"pairTokens"`
}

// Check 전체 상태 확인
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().Format(time.RFC3339),
		Rooms:      h.hub.RoomCount(),
		PairTokens: h.pairing.Size(),
	})
}

// Liveness K8s liveness probe용 (단순 체크)
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}
