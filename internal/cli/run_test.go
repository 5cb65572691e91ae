package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmartin/veracity/internal/model"
)

func writeClaimsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claims.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write claims file: %v", err)
	}
	return path
}

func TestCollectClaims_LinesSkipBlanksAndComments(t *testing.T) {
	runURL = ""
	runExtract = false

	path := writeClaimsFile(t, `UK inflation fell to 4.6% in October 2023.

# not a claim
The NHS treated a record number of patients last year.
`)

	claims, err := collectClaims(context.Background(), model.DefaultConfig(), []string{path})
	if err != nil {
		t.Fatalf("collectClaims: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("got %d claims, want 2", len(claims))
	}
	for i, c := range claims {
		if c.Position != i {
			t.Errorf("claim %d: position = %d", i, c.Position)
		}
		if c.Heuristic != "line" {
			t.Errorf("claim %d: heuristic = %q, want line", i, c.Heuristic)
		}
	}
	if !claims[0].IsTimeSensitive {
		t.Error("dated inflation claim should be time-sensitive")
	}
}

func TestCollectClaims_MissingFile(t *testing.T) {
	runURL = ""
	runExtract = false

	if _, err := collectClaims(context.Background(), model.DefaultConfig(), []string{"/does/not/exist.txt"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStorePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	cfg := model.DefaultConfig()
	cfg.Store.Path = "veracity.db"
	if got, want := storePath(cfg), filepath.Join(home, ".veracity", "veracity.db"); got != want {
		t.Errorf("relative path: got %q, want %q", got, want)
	}

	cfg.Store.Path = "/var/lib/veracity/runs.db"
	if got := storePath(cfg); got != cfg.Store.Path {
		t.Errorf("absolute path: got %q, want %q", got, cfg.Store.Path)
	}

	cfg.Store.Path = ""
	if got, want := storePath(cfg), filepath.Join(home, ".veracity", "veracity.db"); got != want {
		t.Errorf("empty path: got %q, want %q", got, want)
	}
}
