package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.EventBusName != "default" {
		t.Fatalf("expected default event bus, got %s", cfg.EventBusName)
	}
	if cfg.LeadsTable != "vendor_leads" {
		t.Fatalf("expected default leads table, got %s", cfg.LeadsTable)
	}
	if cfg.VendorsConfigTTL != 30*time.Second {
		t.Fatalf("expected 30s vendor config TTL, got %s", cfg.VendorsConfigTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEADS_QUEUE_URL", "http://localhost:4566/000000000000/leads")
	t.Setenv("VENDORS_CONFIG_TTL", "0s")
	t.Setenv("WORKER_COUNT", "7")

	cfg := Load()

	if cfg.LeadsQueueURL != "http://localhost:4566/000000000000/leads" {
		t.Fatalf("unexpected queue URL: %s", cfg.LeadsQueueURL)
	}
	if cfg.VendorsConfigTTL != 0 {
		t.Fatalf("expected cache disabled, got %s", cfg.VendorsConfigTTL)
	}
	if cfg.WorkerCount != 7 {
		t.Fatalf("expected 7 workers, got %d", cfg.WorkerCount)
	}
}
