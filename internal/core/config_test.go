package core

import (
	"testing"
	"time"
)

func TestConfig_ServerAddress(t *testing.T) {
	cfg := &Config{}
	cfg.Chat.Host = "chat.d1.funcom.com"
	cfg.Chat.Port = 7101

	addr := cfg.ServerAddress()
	expected := "chat.d1.funcom.com:7101"
	if addr != expected {
		t.Errorf("ServerAddress() want = %s, got = %s", expected, addr)
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{}
	cfg.Chat.ConnectTimeout = 10
	cfg.Chat.TickInterval = 100
	cfg.Chat.ReadyGrace = 2000
	cfg.Chat.KeepaliveAfter = 60

	if d := cfg.ConnectTimeout(); d != 10*time.Second {
		t.Errorf("ConnectTimeout() want = 10s, got = %s", d)
	}
	if d := cfg.TickInterval(); d != 100*time.Millisecond {
		t.Errorf("TickInterval() want = 100ms, got = %s", d)
	}
	if d := cfg.ReadyGrace(); d != 2*time.Second {
		t.Errorf("ReadyGrace() want = 2s, got = %s", d)
	}
	if d := cfg.KeepaliveAfter(); d != time.Minute {
		t.Errorf("KeepaliveAfter() want = 1m, got = %s", d)
	}
}

func TestNewLogger_RejectsBadLevel(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	if _, err := NewLogger(cfg); err == nil {
		t.Errorf("NewLogger() expected an error for an invalid level")
	}
}
