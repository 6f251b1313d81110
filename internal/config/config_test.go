package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "test-project")
	t.Setenv("FIREBASE_PRIVATE_KEY", "dGVzdC1rZXk=")
	t.Setenv("FIREBASE_CLIENT_EMAIL", "svc@test-project.iam.gserviceaccount.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Session.CookieName != "storefront_session" {
		t.Errorf("CookieName = %s, want storefront_session", cfg.Session.CookieName)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("TTL = %s, want 24h", cfg.Session.TTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "test-project")
	t.Setenv("FIREBASE_PRIVATE_KEY", "dGVzdC1rZXk=")
	t.Setenv("FIREBASE_CLIENT_EMAIL", "svc@test-project.iam.gserviceaccount.com")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("MAX_UPLOAD_SIZE_MB", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("TTL = %s, want 30m", cfg.Session.TTL)
	}
	if cfg.Server.MaxUploadSizeMB != 10 {
		t.Errorf("MaxUploadSizeMB = %d, want 10", cfg.Server.MaxUploadSizeMB)
	}
}

func TestValidateMissingFirebase(t *testing.T) {
	cfg := &Config{}
	cfg.Session.TTL = time.Hour

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing Firebase config")
	}
}
