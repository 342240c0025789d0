package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[backends]
"a.test" = "127.0.0.1:9001"
"b.test" = "127.0.0.1:9002"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Backends) != 2 {
		t.Fatalf("got %d backends, want 2", len(cfg.Backends))
	}
	if cfg.Backends["a.test"] != "127.0.0.1:9001" {
		t.Errorf("a.test = %q", cfg.Backends["a.test"])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := writeConfig(t, `[backends`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadNoBackends(t *testing.T) {
	path := writeConfig(t, `# empty`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty backends table")
	}
}

func TestLoadBadBackendAddr(t *testing.T) {
	path := writeConfig(t, `
[backends]
"a.test" = "no-port-here"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for backend address without port")
	}
}

func TestLoadCollidingHostnames(t *testing.T) {
	path := writeConfig(t, `
[backends]
"a.test" = "127.0.0.1:9001"
"A.TEST" = "127.0.0.1:9002"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for colliding hostnames")
	}
}
