package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Config{
		ServerURL:      "https://chat.example.com",
		Token:          "tok",
		UserID:         "u1",
		Username:       "alice",
		DefaultProfile: "work",
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ServerURL != "https://chat.example.com" {
		t.Errorf("ServerURL = %q, want %q", loaded.ServerURL, "https://chat.example.com")
	}
	if loaded.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", loaded.UserID, "u1")
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"complete", Config{ServerURL: "https://x", UserID: "u1"}, false},
		{"http ok", Config{ServerURL: "http://localhost:8080", UserID: "u1"}, false},
		{"missing url", Config{UserID: "u1"}, true},
		{"bad scheme", Config{ServerURL: "ws://x", UserID: "u1"}, true},
		{"missing user", Config{ServerURL: "https://x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{ServerURL: "https://x"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
