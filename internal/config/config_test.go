package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateEnv points POKESAG_HOME at a temp dir and blanks every override.
func isolateEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv(EnvHome, tmpDir)
	for _, k := range []string{EnvDatabase, EnvPort, EnvBind, EnvHoverCodes, EnvServerURL, EnvPageSize, EnvRefresh, "PORT"} {
		t.Setenv(k, "")
	}
	return tmpDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := isolateEnv(t)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if cfg.Server.APIPort != 8000 {
		t.Errorf("Server.APIPort = %d, want 8000", cfg.Server.APIPort)
	}
	if cfg.Client.PageSize != 100 {
		t.Errorf("Client.PageSize = %d, want 100", cfg.Client.PageSize)
	}
	if cfg.Client.RefreshInterval.Duration != 10*time.Second {
		t.Errorf("Client.RefreshInterval = %v, want 10s", cfg.Client.RefreshInterval)
	}
	if !cfg.Client.FullText || !cfg.Client.Clock24h || cfg.Client.AutoRefresh {
		t.Errorf("Client toggles = %+v", cfg.Client)
	}
	if got, want := cfg.DatabasePath(), filepath.Join(tmpDir, "pokesag.db"); got != want {
		t.Errorf("DatabasePath() = %q, want %q", got, want)
	}
	if cfg.RemoteMode() {
		t.Error("RemoteMode() = true with no server_url")
	}
	if got := cfg.ListenAddr(); got != "127.0.0.1:8000" {
		t.Errorf("ListenAddr() = %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := isolateEnv(t)
	writeFile(t, filepath.Join(tmpDir, "config.toml"), `
[data]
database_path = "/var/lib/pokesag/pages.db"

[server]
api_port = 9090
bind_addr = "0.0.0.0"
hover_codes = "/etc/pokesag/hoverCodes.json"
cors_origins = ["http://localhost:3000"]

[client]
page_size = 25
refresh_interval = "30s"
auto_refresh = true
full_text = false
clock_24h = false
`)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DatabasePath() != "/var/lib/pokesag/pages.db" {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
	if cfg.ListenAddr() != "0.0.0.0:9090" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
	if cfg.Server.HoverCodes != "/etc/pokesag/hoverCodes.json" {
		t.Errorf("HoverCodes = %q", cfg.Server.HoverCodes)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Client.PageSize != 25 || cfg.Client.RefreshInterval.Duration != 30*time.Second {
		t.Errorf("Client = %+v", cfg.Client)
	}
	if !cfg.Client.AutoRefresh || cfg.Client.FullText || cfg.Client.Clock24h {
		t.Errorf("Client toggles = %+v", cfg.Client)
	}
	// Values not in the file keep their defaults.
	if cfg.Server.RateLimitRPS != 10 || cfg.Server.RateLimitBurst != 20 {
		t.Errorf("rate limit = %v/%d", cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}
}

func TestLoadExplicitPathMissing(t *testing.T) {
	tmpDir := isolateEnv(t)
	if _, err := Load(filepath.Join(tmpDir, "nope.toml"), ""); err == nil {
		t.Error("Load() with missing explicit path succeeded")
	}
}

func TestLoadHomeOverride(t *testing.T) {
	isolateEnv(t)
	other := t.TempDir()
	writeFile(t, filepath.Join(other, "config.toml"), "[server]\napi_port = 8123\n")

	cfg, err := Load("", other)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HomeDir != other || cfg.Server.APIPort != 8123 {
		t.Errorf("HomeDir = %q, APIPort = %d", cfg.HomeDir, cfg.Server.APIPort)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	tmpDir := isolateEnv(t)
	writeFile(t, filepath.Join(tmpDir, "config.toml"), "[server]\napi_port = 9090\n")

	t.Setenv(EnvPort, "7000")
	t.Setenv(EnvDatabase, "/tmp/env.db")
	t.Setenv(EnvServerURL, "http://pager.local:8000")
	t.Setenv(EnvRefresh, "5s")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.APIPort != 7000 {
		t.Errorf("APIPort = %d, want env value 7000", cfg.Server.APIPort)
	}
	if cfg.DatabasePath() != "/tmp/env.db" {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
	if !cfg.RemoteMode() || cfg.Client.ServerURL != "http://pager.local:8000" {
		t.Errorf("ServerURL = %q", cfg.Client.ServerURL)
	}
	if cfg.Client.RefreshInterval.Duration != 5*time.Second {
		t.Errorf("RefreshInterval = %v", cfg.Client.RefreshInterval)
	}
}

func TestLoadPlainPortFallback(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PORT", "8181")
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.APIPort != 8181 {
		t.Errorf("APIPort = %d, want 8181", cfg.Server.APIPort)
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := isolateEnv(t)
	writeFile(t, filepath.Join(tmpDir, ".env"), "POKESAG_HOVER_CODES=/srv/hoverCodes.json\nPOKESAG_PAGE_SIZE=50\n")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HoverCodes != "/srv/hoverCodes.json" {
		t.Errorf("HoverCodes = %q", cfg.Server.HoverCodes)
	}
	if cfg.Client.PageSize != 50 {
		t.Errorf("PageSize = %d", cfg.Client.PageSize)
	}
	if os.Getenv(EnvHoverCodes) != "" {
		t.Error(".env leaked into the process environment")
	}
}

func TestLoadProcessEnvBeatsDotEnv(t *testing.T) {
	tmpDir := isolateEnv(t)
	writeFile(t, filepath.Join(tmpDir, ".env"), "POKESAG_PAGE_SIZE=50\n")
	t.Setenv(EnvPageSize, "75")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Client.PageSize != 75 {
		t.Errorf("PageSize = %d, want 75", cfg.Client.PageSize)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad toml", file: "[server\n", wantErr: "decode config"},
		{name: "bad duration", file: "[client]\nrefresh_interval = \"soon\"\n", wantErr: "decode config"},
		{name: "zero page size", file: "[client]\npage_size = 0\n", wantErr: "page_size"},
		{name: "fast refresh", file: "[client]\nrefresh_interval = \"100ms\"\n", wantErr: "refresh_interval"},
		{name: "port range", file: "[server]\napi_port = 70000\n", wantErr: "api_port"},
		{name: "server url scheme", file: "[client]\nserver_url = \"ftp://x\"\n", wantErr: "server_url"},
		{name: "env port", env: map[string]string{EnvPort: "eighty"}, wantErr: "invalid port"},
		{name: "env page size", env: map[string]string{EnvPageSize: "many"}, wantErr: EnvPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := isolateEnv(t)
			if tt.file != "" {
				writeFile(t, filepath.Join(tmpDir, "config.toml"), tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", "")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"~", home},
		{"~/data", filepath.Join(home, "data")},
		{"~other/data", "~other/data"},
		{"rel/~/x", "rel/~/x"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
