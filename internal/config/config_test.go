package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"HUB_HTTP_ADDR", "HUB_GRPC_ADDR", "HUB_SQLITE_PATH", "HUB_ADMIN_TOKEN",
		"HUB_SEND_QUEUE_SIZE", "HUB_WRITE_TIMEOUT_SECONDS",
		"HUB_HEALTH_INTERVAL_SECONDS", "HUB_MAX_MESSAGE_BYTES",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.HTTPAddr != ":8003" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != "127.0.0.1:50061" {
		t.Fatalf("GRPCAddr = %q", cfg.GRPCAddr)
	}
	if cfg.SQLitePath == "" {
		t.Fatalf("SQLitePath empty")
	}
	if cfg.SendQueueSize != 64 {
		t.Fatalf("SendQueueSize = %d", cfg.SendQueueSize)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Fatalf("WriteTimeout = %v", cfg.WriteTimeout)
	}
	if cfg.HealthInterval != 30*time.Second {
		t.Fatalf("HealthInterval = %v", cfg.HealthInterval)
	}
	if cfg.MaxMessageBytes != 64*1024 {
		t.Fatalf("MaxMessageBytes = %d", cfg.MaxMessageBytes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HUB_HTTP_ADDR", ":9000")
	t.Setenv("HUB_SEND_QUEUE_SIZE", "128")
	t.Setenv("HUB_WRITE_TIMEOUT_SECONDS", "5")
	t.Setenv("HUB_SQLITE_PATH", "/var/lib/clearpath/hub.db")
	t.Setenv("HUB_ADMIN_TOKEN", "secret")

	cfg := Load()
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.SendQueueSize != 128 {
		t.Fatalf("SendQueueSize = %d", cfg.SendQueueSize)
	}
	if cfg.WriteTimeout != 5*time.Second {
		t.Fatalf("WriteTimeout = %v", cfg.WriteTimeout)
	}
	if cfg.SQLitePath != "/var/lib/clearpath/hub.db" {
		t.Fatalf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.AdminToken != "secret" {
		t.Fatalf("AdminToken = %q", cfg.AdminToken)
	}
}

func TestEnvIntRejectsGarbage(t *testing.T) {
	t.Setenv("HUB_SEND_QUEUE_SIZE", "lots")
	cfg := Load()
	if cfg.SendQueueSize != 64 {
		t.Fatalf("SendQueueSize = %d, want default on bad value", cfg.SendQueueSize)
	}
}
