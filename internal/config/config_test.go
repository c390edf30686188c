package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_PORT", "DEV", "LOGIN_RATE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Port != 5432 {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if !cfg.App.Dev || cfg.App.LoginRate != 10 {
		t.Fatalf("unexpected app defaults: %+v", cfg.App)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("DEV", "no")
	t.Setenv("MIGRATIONS", "YES")
	cfg := Load()
	if !cfg.Database.IsSQLite() {
		t.Fatalf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Fatalf("invalid int should fall back to default")
	}
	if cfg.App.Dev || !cfg.App.Migrations {
		t.Fatalf("unexpected booleans: %+v", cfg.App)
	}
}

func TestDSNAndURL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	if got := d.DSN(); got != "host=db port=5433 user=u password=p dbname=n sslmode=disable" {
		t.Fatalf("unexpected DSN %q", got)
	}
	if got := d.URL(); got != "postgres://u:p@db:5433/n?sslmode=disable" {
		t.Fatalf("unexpected URL %q", got)
	}
}
