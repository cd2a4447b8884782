package dotenv

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEnvFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoadFileSetsVariables(t *testing.T) {
	path := writeEnvFile(t, "FOO=bar\n# comment\nexport QUOTED=\"hello world\"\nSINGLE='x'\n\nBROKEN\n")
	t.Setenv("FOO", "")
	os.Unsetenv("FOO")
	t.Setenv("QUOTED", "")
	os.Unsetenv("QUOTED")
	t.Setenv("SINGLE", "")
	os.Unsetenv("SINGLE")

	if err := LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("FOO"); got != "bar" {
		t.Fatalf("FOO=%q", got)
	}
	if got := os.Getenv("QUOTED"); got != "hello world" {
		t.Fatalf("QUOTED=%q", got)
	}
	if got := os.Getenv("SINGLE"); got != "x" {
		t.Fatalf("SINGLE=%q", got)
	}
}

func TestLoadFileExistingEnvWins(t *testing.T) {
	path := writeEnvFile(t, "KEEP=fromfile\n")
	t.Setenv("KEEP", "fromenv")

	if err := LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("KEEP"); got != "fromenv" {
		t.Fatalf("existing value was overwritten: %q", got)
	}
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	if err := LoadFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
