package credstore

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "credentials.json"), testLogger())
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetToken("default", "tok-1"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	got, err := s.Token("default")
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if got != "tok-1" {
		t.Errorf("expected tok-1, got %q", got)
	}
}

func TestMissingFileYieldsEmptyToken(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Token("default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
	if s.Exists() {
		t.Error("file should not exist before first write")
	}
}

func TestProfilesAreIndependent(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetToken("staging", "tok-staging"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetToken("prod", "tok-prod"); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearToken("staging"); err != nil {
		t.Fatal(err)
	}

	if got, _ := s.Token("staging"); got != "" {
		t.Errorf("staging token should be cleared, got %q", got)
	}
	if got, _ := s.Token("prod"); got != "tok-prod" {
		t.Errorf("prod token should survive, got %q", got)
	}

	names, err := s.Profiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "prod" {
		t.Errorf("unexpected profiles: %v", names)
	}
}

func TestFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	s := newTestStore(t)

	if err := s.SetToken("default", "tok"); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("expected 0600, got %04o", mode)
	}
}

func TestBackupCreatedOnOverwrite(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetToken("default", "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetToken("default", "second"); err != nil {
		t.Fatal(err)
	}

	bak, err := os.ReadFile(s.Path() + ".bak")
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if !strings.Contains(string(bak), "first") {
		t.Error("backup should hold the previous document")
	}
}

func TestCorruptFileIsAnError(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Token("default"); err == nil {
		t.Fatal("expected parse error for corrupt credentials file")
	}
}

func TestConcurrentWritersDoNotCorrupt(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.SetToken("default", "tok")
		}()
	}
	wg.Wait()

	got, err := s.Token("default")
	if err != nil {
		t.Fatalf("file corrupted by concurrent writes: %v", err)
	}
	if got != "tok" {
		t.Errorf("expected tok, got %q", got)
	}
}

func TestPassphraseGatesReveal(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetToken("default", "secret-token"); err != nil {
		t.Fatal(err)
	}

	// Without a passphrase configured, reveal is open.
	if got, err := s.Reveal("default", ""); err != nil || got != "secret-token" {
		t.Fatalf("open reveal failed: %q, %v", got, err)
	}

	if err := s.SetPassphrase("correct horse"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Reveal("default", "wrong"); err == nil {
		t.Fatal("expected mismatch error for wrong passphrase")
	}
	if got, err := s.Reveal("default", "correct horse"); err != nil || got != "secret-token" {
		t.Fatalf("reveal with correct passphrase failed: %q, %v", got, err)
	}
}

func TestEmptyPassphraseRejected(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetPassphrase(""); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}

func TestFileTokenStoreInterface(t *testing.T) {
	s := newTestStore(t)
	ts := NewFileTokenStore(s, "")

	if err := ts.Save("tok-x"); err != nil {
		t.Fatal(err)
	}
	got, err := ts.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != "tok-x" {
		t.Errorf("expected tok-x, got %q", got)
	}

	if err := ts.Clear(); err != nil {
		t.Fatal(err)
	}
	got, err = ts.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("expected empty after clear, got %q", got)
	}
}
