package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSettingsDefaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetAuditMaxSizeMB(); got != DefaultAuditMaxSizeMB {
		t.Errorf("GetAuditMaxSizeMB() default = %d, want %d", got, DefaultAuditMaxSizeMB)
	}
	if got := s.GetAuditMaxBackups(); got != DefaultAuditMaxBackups {
		t.Errorf("GetAuditMaxBackups() default = %d, want %d", got, DefaultAuditMaxBackups)
	}
	if got := s.GetSSHPort(); got != 22 {
		t.Errorf("GetSSHPort() default = %d, want 22", got)
	}
	if s.CallOverloading {
		t.Error("CallOverloading should default to false")
	}
}

func TestSettingsOverrides(t *testing.T) {
	s := &Settings{AuditMaxSizeMB: 50, AuditMaxBackups: 3, SSHPort: 2222}

	if got := s.GetAuditMaxSizeMB(); got != 50 {
		t.Errorf("GetAuditMaxSizeMB() = %d, want 50", got)
	}
	if got := s.GetAuditMaxBackups(); got != 3 {
		t.Errorf("GetAuditMaxBackups() = %d, want 3", got)
	}
	if got := s.GetSSHPort(); got != 2222 {
		t.Errorf("GetSSHPort() = %d, want 2222", got)
	}
}

func TestSettingsClear(t *testing.T) {
	s := &Settings{
		CallOverloading: true,
		DefaultTimeout:  30 * time.Second,
		SSHHost:         "bus.example.com",
	}

	s.Clear()

	if s.CallOverloading || s.DefaultTimeout != 0 || s.SSHHost != "" {
		t.Error("Clear() should reset all fields to empty")
	}
}

func TestSettingsSaveLoad(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "ifworker-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "settings.json")

	original := &Settings{
		CallOverloading: true,
		DefaultTimeout:  15 * time.Second,
		SSHHost:         "bus.example.com",
		SSHUser:         "netadmin",
		SSHPort:         2222,
		SSHRemoteRedis:  "10.0.0.1:6379",
		AuditLogPath:    "/var/log/ifworker/audit.log",
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if loaded.CallOverloading != original.CallOverloading {
		t.Errorf("CallOverloading mismatch: got %v, want %v", loaded.CallOverloading, original.CallOverloading)
	}
	if loaded.DefaultTimeout != original.DefaultTimeout {
		t.Errorf("DefaultTimeout mismatch: got %v, want %v", loaded.DefaultTimeout, original.DefaultTimeout)
	}
	if loaded.SSHHost != original.SSHHost {
		t.Errorf("SSHHost mismatch: got %q, want %q", loaded.SSHHost, original.SSHHost)
	}
	if loaded.SSHUser != original.SSHUser {
		t.Errorf("SSHUser mismatch: got %q, want %q", loaded.SSHUser, original.SSHUser)
	}
	if loaded.SSHPort != original.SSHPort {
		t.Errorf("SSHPort mismatch: got %d, want %d", loaded.SSHPort, original.SSHPort)
	}
	if loaded.AuditLogPath != original.AuditLogPath {
		t.Errorf("AuditLogPath mismatch: got %q, want %q", loaded.AuditLogPath, original.AuditLogPath)
	}
}

func TestSettingsNeverPersistsSSHPass(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "ifworker-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "settings.json")
	if err := (&Settings{SSHHost: "bus.example.com"}).SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	for _, field := range []string{"ssh_pass", "password"} {
		if contains(string(data), field) {
			t.Errorf("settings.json must never contain a %q field", field)
		}
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestLoadFromNonExistent(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s.CallOverloading || s.SSHHost != "" {
		t.Error("LoadFrom() non-existent should return empty settings")
	}
}

func TestLoadFromInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "settings.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() with invalid JSON should error")
	}
}

func TestSaveToCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "subdir", "nested", "settings.json")

	s := &Settings{CallOverloading: true}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() should create directories: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("SaveTo() should have created the file")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	path := DefaultSettingsPath()
	if path == "" {
		t.Error("DefaultSettingsPath() should not be empty")
	}
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpDir := t.TempDir()
	os.Setenv("HOME", tmpDir)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() with no settings file should not error: %v", err)
	}
	if s.SSHHost != "" {
		t.Error("Load() with no settings file should return empty settings")
	}

	toSave := &Settings{SSHHost: "bus.example.com", CallOverloading: true}
	if err := toSave.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() after Save() failed: %v", err)
	}
	if loaded.SSHHost != "bus.example.com" || !loaded.CallOverloading {
		t.Errorf("Load() after Save() = %+v, want SSHHost bus.example.com and CallOverloading true", loaded)
	}
}
