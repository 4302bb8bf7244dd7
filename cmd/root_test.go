package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/mcgen/internal/cache"
)

func TestCheckCacheNeverBuilt(t *testing.T) {
	err := checkCache(cache.Store{Dir: t.TempDir()})
	if !errors.Is(err, errNoCache) {
		t.Errorf("err = %v, want errNoCache", err)
	}
}

func TestCheckCacheStatError(t *testing.T) {
	// A regular file where the cache directory should be makes Stat fail
	// with something other than "not exist".
	file := filepath.Join(t.TempDir(), "cache")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := checkCache(cache.Store{Dir: file})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, errNoCache) {
		t.Errorf("stat error reported as a missing cache: %v", err)
	}
}

func TestCheckCacheBuilt(t *testing.T) {
	store := cache.Store{Dir: t.TempDir()}
	if err := os.WriteFile(store.Path(), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := checkCache(store); err != nil {
		t.Errorf("checkCache: %v", err)
	}
}
