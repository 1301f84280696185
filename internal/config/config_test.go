package config

import (
	"path/filepath"
	"testing"
)

func TestLoadSampleConfig(t *testing.T) {
	path := filepath.Join("..", "..", "config.example.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load sample config: %v", err)
	}
	if cfg.Server.Port != 8090 {
		t.Fatalf("port=%d want 8090", cfg.Server.Port)
	}
	if cfg.State.Driver != "file" {
		t.Fatalf("state driver=%q want file", cfg.State.Driver)
	}
	if cfg.Backend.BaseURL == "" {
		t.Fatalf("backend baseURL missing")
	}
}

func TestDefaultsApplied(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()
	if cfg.Server.Port != 8090 || cfg.State.Driver != "file" || cfg.State.Path == "" || cfg.Artifacts.Dir == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestDSNHelpers(t *testing.T) {
	var cfg Config
	cfg.Database.Host = "db"
	cfg.Database.Port = 3306
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "console"

	want := "u:p@tcp(db:3306)/console?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := cfg.MySQLDSN(); got != want {
		t.Fatalf("MySQLDSN()=%q want %q", got, want)
	}
	if got := cfg.PostgresDSN(); got != "host=db port=3306 user=u password=p dbname=console sslmode=disable" {
		t.Fatalf("unexpected postgres dsn: %q", got)
	}
}
