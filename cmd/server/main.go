package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"realtime-hub/internal/config"
	"realtime-hub/internal/hub"
	"realtime-hub/internal/logsink"
	"realtime-hub/internal/pairing"
	"realtime-hub/internal/server"
	"realtime-hub/internal/store"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// 화이트보드 영속성
	st, err := store.New(cfg.Store.DataDir, cfg.Store.SaveDebounce)
	if err != nil {
		log.Fatalf("Store init failed: %v", err)
	}

	// 페어링 레지스트리
	pr := pairing.NewRegistry(clock.New(), cfg.Pairing.TokenTTL, cfg.Pairing.ReapInterval)
	defer pr.Stop()

	h := hub.NewHub(st, pr, cfg.Hub.SendQueueSize, cfg.Chat.BufferCap, cfg.Chat.HistoryLimit)
	sink := logsink.New(cfg.LogSink.Dir, cfg.LogSink.Enabled)
	if sink.Enabled() {
		log.Printf("[Server] Client log sink enabled (dir: %s)", cfg.LogSink.Dir)
	}

	// 서버 생성 및 설정
	srv := server.New(cfg, h, pr, sink)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// Graceful Shutdown: 리스너를 닫고 남은 룸 상태를 플러시
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("[Server] Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("[Server] Shutdown error: %v", err)
		}
	}()

	if err := srv.Listen(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}

	h.FlushAll()
	log.Println("[Server] Stopped")
}
