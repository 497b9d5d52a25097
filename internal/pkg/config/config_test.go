package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test-service")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Session.SupersedePolicy != "last-wins" {
		t.Errorf("expected last-wins, got %q", cfg.Session.SupersedePolicy)
	}
	if cfg.Session.IdleTTL() != 30*time.Minute {
		t.Errorf("expected 30m idle TTL, got %v", cfg.Session.IdleTTL())
	}
	if cfg.Telemetry.ServiceName != "test-service" {
		t.Errorf("expected service name from caller, got %q", cfg.Telemetry.ServiceName)
	}
	if len(cfg.Maps.OverpassURLs) != 1 {
		t.Errorf("expected one default overpass endpoint, got %v", cfg.Maps.OverpassURLs)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SWINGS_SERVER_PORT", "9090")
	t.Setenv("SWINGS_SESSION_SUPERSEDE_POLICY", "cancel-superseded")
	t.Setenv("SWINGS_MAPS_OVERPASS_URLS", "https://a.example/api, https://b.example/api")
	t.Setenv("SWINGS_MAPS_BACKOFF_MS", "250")

	cfg, err := Load("test-service")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Session.SupersedePolicy != "cancel-superseded" {
		t.Errorf("expected cancel-superseded, got %q", cfg.Session.SupersedePolicy)
	}
	if len(cfg.Maps.OverpassURLs) != 2 || cfg.Maps.OverpassURLs[1] != "https://b.example/api" {
		t.Errorf("expected two overpass endpoints, got %v", cfg.Maps.OverpassURLs)
	}
	if cfg.Maps.Backoff() != 250*time.Millisecond {
		t.Errorf("expected 250ms backoff, got %v", cfg.Maps.Backoff())
	}
}

func TestLoad_InvalidPolicy(t *testing.T) {
	t.Setenv("SWINGS_SESSION_SUPERSEDE_POLICY", "first-wins")

	_, err := Load("test-service")
	if err == nil || !strings.Contains(err.Error(), "supersede_policy") {
		t.Fatalf("expected supersede_policy error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Server:  ServerConfig{Port: 0, ReadTimeout: 10, WriteTimeout: 10},
		Maps:    MapsConfig{OSRMURL: "http://osrm", TimeoutSeconds: 5, MaxAttempts: 1},
		Session: SessionConfig{SupersedePolicy: "last-wins"},
		NATS:    NATSConfig{Enabled: true},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "maps.overpass_urls", "nats.url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}
