package server

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"realtime-hub/internal/config"
	"realtime-hub/internal/handler"
	"realtime-hub/internal/hub"
	"realtime-hub/internal/logsink"
	"realtime-hub/internal/pairing"
)

// Server Fiber 서버 래퍼
type Server struct {
	app           *fiber.App
	cfg           *config.Config
	wsHandler     *handler.WSHandler
	logHandler    *handler.LogHandler
	healthHandler *handler.HealthHandler
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, h *hub.Hub, pr *pairing.Registry, sink *logsink.Sink) *Server {
	app := fiber.New(fiber.Config{
		AppName:       "Realtime Hub",
		ServerHeader:  "Fiber",
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		Prefork:       false, // WebSocket과 호환성 문제로 비활성화
		BodyLimit:     64 * 1024,
	})

	return &Server{
		app:           app,
		cfg:           cfg,
		wsHandler:     handler.NewWSHandler(h, cfg.WebSocket.MaxFrameSize),
		logHandler:    handler.NewLogHandler(sink),
		healthHandler: handler.NewHealthHandler(h, pr),
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, OPTIONS",
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/healthz", s.healthHandler.Liveness)
	s.app.Post("/log", s.logHandler.Append)

	// 업그레이드는 모든 경로에서 허용; 그 외 요청은 200 ok
	s.app.Use(func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendString("ok")
		}

		role := c.Query("role", hub.RoleWeb)
		if role != hub.RoleMobile {
			role = hub.RoleWeb
		}
		c.Locals("role", role)

		return c.Next()
	})

	s.app.Get("/*", websocket.New(s.wsHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Listen 서버 시작
func (s *Server) Listen() error {
	log.Printf("[Server] Realtime hub starting on %s", s.cfg.Server.Port)
	log.Printf("[Server] WebSocket endpoint: ws://localhost%s/ws", s.cfg.Server.Port)
	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
