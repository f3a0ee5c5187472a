package config

import (
	"os"
	"path/filepath"
	"testing"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SCHEDULE_DB_PATH", "")
	t.Setenv("SCHEDULE_LOG_LEVEL", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := withHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Calendar != DefaultCalendar || cfg.LogLevel != DefaultLogLevel {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if want := filepath.Join(home, ".config", "schedule", "schedule.db"); cfg.DBPath != want {
		t.Errorf("DBPath: want %s, got %s", want, cfg.DBPath)
	}
	if cfg.GroupCap() != DefaultMaxGroupTasks {
		t.Errorf("Expected group cap %d, got %d", DefaultMaxGroupTasks, cfg.GroupCap())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	home := withHome(t)
	path := filepath.Join(home, ".config", "schedule", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	data := "db_path: ~/data/habits.db\ncalendar: Habits\nmax_group_tasks: 0\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if want := filepath.Join(home, "data", "habits.db"); cfg.DBPath != want {
		t.Errorf("DBPath: want %s, got %s", want, cfg.DBPath)
	}
	if cfg.Calendar != "Habits" {
		t.Errorf("Expected calendar Habits, got %s", cfg.Calendar)
	}
	if cfg.GroupCap() != 0 {
		t.Errorf("Expected unlimited groups, got %d", cfg.GroupCap())
	}

	t.Setenv("SCHEDULE_DB_PATH", "/tmp/override.db")
	t.Setenv("SCHEDULE_LOG_LEVEL", "debug")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" || cfg.LogLevel != "debug" {
		t.Errorf("Expected env overrides, got %+v", cfg)
	}
}

func TestLoadRejectsNegativeCap(t *testing.T) {
	home := withHome(t)
	path := filepath.Join(home, ".config", "schedule", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("max_group_tasks: -1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("Expected an error for a negative max_group_tasks")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	withHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Calendar = "Routine"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Calendar != "Routine" || got.DBPath != cfg.DBPath || got.GroupCap() != cfg.GroupCap() {
		t.Errorf("Round trip mismatch: want %+v, got %+v", cfg, got)
	}
}
