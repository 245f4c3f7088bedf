package config

import (
	"path/filepath"
	"testing"
)

func TestInitialize(t *testing.T) {
	current.Store(nil)
	t.Cleanup(func() { current.Store(nil) })

	if err := Initialize(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
	if GetConfig() != nil {
		t.Fatal("a failed load must not set the configuration")
	}

	path := writeConfig(t, minimalConfig)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() after a failed attempt error = %v", err)
	}
	loaded := GetConfig()
	if loaded == nil || loaded.Database.Name != "erp_main" {
		t.Fatalf("GetConfig() = %+v", loaded)
	}

	if err := Initialize(filepath.Join(t.TempDir(), "other.yaml")); err != nil {
		t.Errorf("Initialize() on a loaded configuration error = %v", err)
	}
	if GetConfig() != loaded {
		t.Error("a loaded configuration should be kept")
	}

	replacement := NewDefault()
	SetConfig(replacement)
	if GetConfig() != replacement {
		t.Error("SetConfig() should replace the configuration")
	}
}
