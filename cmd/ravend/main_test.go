package main

import (
	"path/filepath"
	"testing"
)

func TestDataDirAndConfigDirAreNamedRavend(t *testing.T) {
	if got := filepath.Base(dataDir()); got != "ravend" {
		t.Errorf("dataDir() = %q, want a path ending in \"ravend\"", dataDir())
	}
	if got := filepath.Base(configDir()); got != "ravend" {
		t.Errorf("configDir() = %q, want a path ending in \"ravend\"", configDir())
	}
	if dataDir() == configDir() {
		t.Error("expected data and config directories to resolve to distinct roots")
	}
}
