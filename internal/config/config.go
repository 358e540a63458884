package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	SQLitePath      string
	AdminToken      string
	SendQueueSize   int
	WriteTimeout    time.Duration
	HealthInterval  time.Duration
	MaxMessageBytes int64
}

func Load() Config {
	writeTimeoutSec := envInt("HUB_WRITE_TIMEOUT_SECONDS", 10)
	healthIntervalSec := envInt("HUB_HEALTH_INTERVAL_SECONDS", 30)
	baseDir := executableDir()
	return Config{
		HTTPAddr:        env("HUB_HTTP_ADDR", ":8003"),
		GRPCAddr:        env("HUB_GRPC_ADDR", "127.0.0.1:50061"),
		SQLitePath:      envPath("HUB_SQLITE_PATH", filepath.Join(baseDir, "hub.db"), baseDir),
		AdminToken:      env("HUB_ADMIN_TOKEN", ""),
		SendQueueSize:   envInt("HUB_SEND_QUEUE_SIZE", 64),
		WriteTimeout:    time.Duration(writeTimeoutSec) * time.Second,
		HealthInterval:  time.Duration(healthIntervalSec) * time.Second,
		MaxMessageBytes: int64(envInt("HUB_MAX_MESSAGE_BYTES", 64*1024)),
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envPath(k, def, baseDir string) string {
	v := env(k, def)
	if v == "" {
		return v
	}
	if filepath.IsAbs(v) {
		return v
	}
	if baseDir == "" {
		return v
	}
	return filepath.Join(baseDir, v)
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil || exe == "" {
		return "."
	}
	if real, err := filepath.EvalSymlinks(exe); err == nil && real != "" {
		exe = real
	}
	dir := filepath.Dir(exe)
	if dir == "" {
		return "."
	}
	return dir
}
