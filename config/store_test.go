package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"novywave/protocol"
)

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(context.Background(), dir, nil)
	defer s.Stop()

	if got := s.Get(); !reflect.DeepEqual(got, protocol.DefaultAppConfig()) {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestReplacePersistsImmediately(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(context.Background(), dir, nil)
	defer s.Stop()

	want := protocol.DefaultAppConfig()
	want.UI.Theme = protocol.ThemeLight
	want.Workspace.OpenedFiles = []string{"/tmp/trace.vcd"}

	if err := s.Replace(want); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	reloaded := NewStore(context.Background(), dir, nil)
	defer reloaded.Stop()
	got := reloaded.Get()
	if got.UI.Theme != protocol.ThemeLight {
		t.Fatalf("expected theme to round-trip, got %+v", got)
	}
	if len(got.Workspace.OpenedFiles) != 1 || got.Workspace.OpenedFiles[0] != "/tmp/trace.vcd" {
		t.Fatalf("expected opened files to round-trip, got %+v", got.Workspace.OpenedFiles)
	}
}

func TestMutateDebouncesTheSave(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(context.Background(), dir, nil)
	defer s.Stop()

	s.Mutate(func(c protocol.AppConfig) protocol.AppConfig {
		c.Workspace.VariablesSearchFilter = "clk"
		return c
	})

	if _, err := os.Stat(filepath.Join(dir, "novywave.json")); !os.IsNotExist(err) {
		t.Fatalf("expected no write before the debounce window elapses")
	}

	time.Sleep(saveDebounce + 200*time.Millisecond)

	reloaded := NewStore(context.Background(), dir, nil)
	defer reloaded.Stop()
	if got := reloaded.Get().Workspace.VariablesSearchFilter; got != "clk" {
		t.Fatalf("expected debounced save to persist, got %q", got)
	}
}

func TestLoadRecreatesOnUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	writeRawConfig(t, dir, `{"app":{"version":99},"ui":{"theme":"light"}}`)

	s := NewStore(context.Background(), dir, nil)
	defer s.Stop()
	if got := s.Get(); !reflect.DeepEqual(got, protocol.DefaultAppConfig()) {
		t.Fatalf("expected an unknown future version to recreate defaults, got %+v", got)
	}
}

func TestLoadUpgradesOlderVersion(t *testing.T) {
	dir := t.TempDir()
	writeRawConfig(t, dir, `{"app":{"version":1},"ui":{"theme":"light","toastDismissMs":4000}}`)

	s := NewStore(context.Background(), dir, nil)
	defer s.Stop()
	got := s.Get()
	if got.App.Version != protocol.CurrentConfigVersion {
		t.Fatalf("expected upgrade to stamp the current version, got %d", got.App.Version)
	}
	if got.UI.Theme != protocol.ThemeLight {
		t.Fatalf("expected fields from the older version to survive the upgrade, got %+v", got.UI)
	}
}

func writeRawConfig(t *testing.T, dir, json string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "novywave.json"), []byte(json), 0o644); err != nil {
		t.Fatal(err)
	}
}
