package config

import "testing"

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "support", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_SupportDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Support.BusinessOpen != "08:00" || c.Support.BusinessClose != "17:00" {
		t.Fatalf("expected default business window, got %q-%q", c.Support.BusinessOpen, c.Support.BusinessClose)
	}
	if c.Support.Timezone != "UTC" {
		t.Fatalf("expected UTC default, got %q", c.Support.Timezone)
	}
	if c.Support.HumanOnlyChannel != "voice" {
		t.Fatalf("expected voice human-only default, got %q", c.Support.HumanOnlyChannel)
	}
	if c.Support.DefaultPool != "customer-service" {
		t.Fatalf("expected customer-service pool default, got %q", c.Support.DefaultPool)
	}
	if c.Support.ReportScanCap != 5000 {
		t.Fatalf("expected scan cap 5000, got %d", c.Support.ReportScanCap)
	}
	if c.Support.AIConcurrency != 4 {
		t.Fatalf("expected ai concurrency 4, got %d", c.Support.AIConcurrency)
	}
}

func TestValidate_RejectsInvertedBusinessWindow(t *testing.T) {
	c := validBase()
	c.Support.BusinessOpen = "17:00"
	c.Support.BusinessClose = "08:00"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for close before open")
	}
}

func TestBusinessWindow_ParsesClockTimes(t *testing.T) {
	c := validBase()
	c.Support.BusinessOpen = "09:30"
	c.Support.BusinessClose = "18:15"
	c.Support.Timezone = "UTC"
	open, closeAt, loc := c.BusinessWindow()
	if open != 9*60+30 || closeAt != 18*60+15 {
		t.Fatalf("unexpected window: %d-%d", open, closeAt)
	}
	if loc == nil {
		t.Fatalf("expected location")
	}
}
