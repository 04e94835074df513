// Package testutil provides shared test helpers for note directories and
// git repositories.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/zettpub/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDir creates a temporary directory with a storage.Provider.
func TestDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes content to dir/name.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content of dir/name.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// FileNames returns the sorted names of the regular files in dir.
func FileNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, e.Name())
		}
	}
	return out
}

// RequireGit skips the test when the git executable is unavailable.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// Git runs a git command in dir and fails the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=zettpub", "GIT_AUTHOR_EMAIL=zettpub@example.com",
		"GIT_COMMITTER_NAME=zettpub", "GIT_COMMITTER_EMAIL=zettpub@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// GitRepo creates a repository with one commit and a bare remote it tracks,
// and returns the work tree path. The pages subdirectory is created with a
// committed .gitignore.
func GitRepo(t *testing.T, subpath string) string {
	t.Helper()
	RequireGit(t)

	remote := filepath.Join(t.TempDir(), "remote.git")
	Git(t, filepath.Dir(remote), "init", "--bare", "--quiet", remote)

	repo := t.TempDir()
	Git(t, repo, "init", "--quiet")
	Git(t, repo, "config", "user.name", "zettpub")
	Git(t, repo, "config", "user.email", "zettpub@example.com")
	Git(t, repo, "config", "commit.gpgsign", "false")
	Git(t, repo, "checkout", "--quiet", "-b", "main")

	pages := filepath.Join(repo, subpath)
	if err := os.MkdirAll(pages, 0o755); err != nil {
		t.Fatal(err)
	}
	WriteFile(t, pages, ".gitignore", "*.tmp\n")
	Git(t, repo, "add", "--all")
	Git(t, repo, "commit", "--quiet", "-m", "initial")
	Git(t, repo, "remote", "add", "origin", remote)
	Git(t, repo, "push", "--quiet", "-u", "origin", "main")
	return repo
}
