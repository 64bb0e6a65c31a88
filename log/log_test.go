package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("LINNY_LOG_PATH", "/tmp/envlog")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/envlog" {
		t.Errorf("got %q, want /tmp/envlog", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("hello")
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatalf("read diagnostics: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("diagnostics log missing message: %q", data)
	}
}

func TestConversationLog(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Utterance("linny what time is it")
	Spoken("It is currently 10:00 AM")
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "conversation_log.txt"))
	if err != nil {
		t.Fatalf("read conversation: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "heard\tlinny what time is it") {
		t.Errorf("missing heard line: %q", s)
	}
	if !strings.Contains(s, "spoke\tIt is currently 10:00 AM") {
		t.Errorf("missing spoke line: %q", s)
	}
}

func TestLogBeforeInitIsNoop(t *testing.T) {
	setupLogDir(t)
	// Must not panic without Init.
	Info("early")
	Utterance("early")
	Errorf("early %d", 1)
}
