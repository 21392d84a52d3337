package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 애플리케이션 전체 설정
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Hub       HubConfig
	Store     StoreConfig
	Pairing   PairingConfig
	Chat      ChatConfig
	CORS      CORSConfig
	LogSink   LogSinkConfig
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// WebSocketConfig WebSocket 관련 설정
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxFrameSize    int
}

// HubConfig 허브 / 룸 설정
type HubConfig struct {
	SendQueueSize int
}

// StoreConfig 화이트보드 영속성 설정
type StoreConfig struct {
	DataDir      string
	SaveDebounce time.Duration
}

// PairingConfig 페어링 토큰 설정
type PairingConfig struct {
	TokenTTL     time.Duration
	ReapInterval time.Duration
}

// ChatConfig 채팅 버퍼 설정
type ChatConfig struct {
	BufferCap    int
	HistoryLimit int
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// LogSinkConfig 클라이언트 로그 수집 설정
type LogSinkConfig struct {
	Enabled bool
	Dir     string
}

// Load 환경 변수에서 설정 로드
func Load() *Config {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// PORT는 ":8080"도 "8080"도 허용
	port := getEnv("PORT", "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize: getInt("WS_WRITE_BUFFER_SIZE", 4096),
			MaxFrameSize:    getInt("WS_MAX_FRAME_SIZE", 64*1024),
		},
		Hub: HubConfig{
			SendQueueSize: getInt("SEND_QUEUE_SIZE", 256),
		},
		Store: StoreConfig{
			DataDir:      getEnv("DATA_DIR", "./data/rooms"),
			SaveDebounce: getDuration("SAVE_DEBOUNCE", 250*time.Millisecond),
		},
		Pairing: PairingConfig{
			TokenTTL:     getDuration("PAIR_TOKEN_TTL", 2*time.Minute),
			ReapInterval: getDuration("PAIR_REAP_INTERVAL", 10*time.Second),
		},
		Chat: ChatConfig{
			BufferCap:    getInt("CHAT_BUFFER_CAP", 200),
			HistoryLimit: getInt("CHAT_HISTORY_LIMIT", 100),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept"),
		},
		LogSink: LogSinkConfig{
			Enabled: getBool("REALTIME_DEBUG_LOGS", false),
			Dir:     getEnv("LOG_DIR", "./data/logs"),
		},
	}
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt 정수형 환경 변수 조회
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getBool 불리언 환경 변수 조회
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
