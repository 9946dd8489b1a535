package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	corechess "github.com/park285/void-chess/internal/chess"
)

type AppConfig struct {
	HTTPAddr string

	RedisURL    string
	DatabaseURL string

	ChessClockDuration     time.Duration
	ChessDefaultDifficulty corechess.Difficulty
	ChessCastlingMode      corechess.CastlingMode
	ChessSessionTTLSec     int
	ChessHistoryLimit      int
	ChessBoardTheme        string

	MessagesDir string

	VoidctlBaseURL string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:               ":8080",
		ChessClockDuration:     600 * time.Second,
		ChessDefaultDifficulty: corechess.Intermediate,
		ChessCastlingMode:      corechess.CastleRelocateRook,
		ChessSessionTTLSec:     3600,
		ChessHistoryLimit:      10,
		ChessBoardTheme:        "classic",
		VoidctlBaseURL:         "http://localhost:8080",
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	if v := strings.TrimSpace(os.Getenv("VOIDCTL_BASE_URL")); v != "" {
		cfg.VoidctlBaseURL = v
	}

	// Chess specific
	if v := strings.TrimSpace(os.Getenv("CHESS_CLOCK_SECONDS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("CHESS_CLOCK_SECONDS must be a positive integer, got %q", v)
		}
		cfg.ChessClockDuration = time.Duration(n) * time.Second
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_DEFAULT_DIFFICULTY")); v != "" {
		d, err := corechess.ParseDifficulty(v)
		if err != nil {
			return nil, fmt.Errorf("CHESS_DEFAULT_DIFFICULTY: %w (want one of %v)", err, corechess.Difficulties())
		}
		cfg.ChessDefaultDifficulty = d
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_CASTLING_MODE")); v != "" {
		m, err := corechess.ParseCastlingMode(v)
		if err != nil {
			return nil, fmt.Errorf("CHESS_CASTLING_MODE: %w", err)
		}
		cfg.ChessCastlingMode = m
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_SESSION_TTL")); v != "" { // seconds
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChessSessionTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChessHistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_BOARD_THEME")); v != "" {
		cfg.ChessBoardTheme = strings.ToLower(v)
	}

	if cfg.MessagesDir != "" {
		info, err := os.Stat(cfg.MessagesDir)
		if err != nil {
			return nil, fmt.Errorf("MESSAGES_DIR: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("MESSAGES_DIR %q is not a directory", cfg.MessagesDir)
		}
	}

	return cfg, nil
}

// SessionTTL is ChessSessionTTLSec as a duration.
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.ChessSessionTTLSec) * time.Second
}
