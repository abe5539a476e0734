package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".bashchat", "sessions", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestSocketPath(t *testing.T) {
	got := SocketPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "daemon.sock")) {
		t.Errorf("SocketPath(test) = %q, want suffix sessions/test/daemon.sock", got)
	}
}

func TestCachePath(t *testing.T) {
	got := CachePath("test")
	if !strings.HasSuffix(got, filepath.Join("test", "cache.db")) {
		t.Errorf("CachePath(test) = %q, want suffix test/cache.db", got)
	}
}

func TestCredentialsDir(t *testing.T) {
	got := CredentialsDir("test")
	if !strings.HasSuffix(got, filepath.Join("test", "secure")) {
		t.Errorf("CredentialsDir(test) = %q, want suffix test/secure", got)
	}
}
