package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testCfg struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

var errBadCfg = errors.New("bad config")

type validatedCfg struct {
	Port int `yaml:"port"`
}

func (c *validatedCfg) Validate() error {
	if c.Port <= 0 {
		return errBadCfg
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CFG_NAME", "expanded")
	path := writeFile(t, "name: ${TEST_CFG_NAME}\nport: 9090\n")

	var cfg testCfg
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "expanded" || cfg.Port != 9090 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeFile(t, "port: 0\n")

	var cfg validatedCfg
	if err := Load(path, &cfg); !errors.Is(err, errBadCfg) {
		t.Errorf("err = %v, want %v", err, errBadCfg)
	}
}

func TestLoadIfExistsMissingFileKeepsDefaults(t *testing.T) {
	cfg := validatedCfg{Port: 8080}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want defaults preserved", cfg.Port)
	}
}

func TestLoadIfExistsMissingFileStillValidates(t *testing.T) {
	cfg := validatedCfg{Port: 0}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); !errors.Is(err, errBadCfg) {
		t.Errorf("err = %v, want %v", err, errBadCfg)
	}
}
