package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gqcore/gqcore/pkg/cache"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Cache.ThumbMaxWidth != 256 {
		t.Errorf("got %d, want the default thumbnail width", config.Cache.ThumbMaxWidth)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := Default()
	original.Cache.Root = "/data/cache"
	original.Remote.SocketPath = "/run/gqcore.sock"
	original.Filter.Extensions = []string{".jpg", ".png"}

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Cache.Root != original.Cache.Root {
		t.Errorf("got cache root %q, want %q", loaded.Cache.Root, original.Cache.Root)
	}
	if loaded.Remote.SocketPath != original.Remote.SocketPath {
		t.Errorf("got socket path %q, want %q", loaded.Remote.SocketPath, original.Remote.SocketPath)
	}
	if len(loaded.Filter.Extensions) != 2 {
		t.Errorf("got %v, want two extensions", loaded.Filter.Extensions)
	}
}

func TestSaveLeavesNoTemporaryFileBehind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected the temporary file to be renamed away, not left behind")
	}
}

func TestCacheLayoutReflectsModeFlags(t *testing.T) {
	config := Default()
	config.Cache.Root = "/data/cache"
	config.Cache.CacheInDirs = true

	layout := config.CacheLayout()
	if layout.ThumbMode != cache.ModeCacheInDirs {
		t.Errorf("got thumb mode %v, want cache-in-dirs", layout.ThumbMode)
	}
}
