// Package git drives the destination repository through the git executable.
//
// Commands run with "git -C <root>", capture stdout and stderr, and report
// failures as apperr.ErrVCS carrying git's own message.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/starford/zettpub/internal/apperr"
	"github.com/starford/zettpub/internal/models"
)

// emptyTreeSHA is the SHA of git's empty tree object.
// Used as the diff base when the repository has no commit yet.
const emptyTreeSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Repo is a git work tree.
type Repo struct {
	root string
}

// Open returns the repository whose work tree is root.
func Open(ctx context.Context, root string) (*Repo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve repository path: %w", apperr.ErrConfig, err)
	}
	r := &Repo{root: abs}
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || out != "true" {
		return nil, fmt.Errorf("%w: %s is not a git work tree", apperr.ErrConfig, abs)
	}
	return r, nil
}

// Root returns the work tree path.
func (r *Repo) Root() string {
	return r.root
}

// run executes a git command and returns its trimmed stdout.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	out, err := r.runRaw(ctx, args...)
	return strings.TrimSpace(out), err
}

func (r *Repo) runRaw(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.root}, args...)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%w: git not found: ensure git is installed and in PATH", apperr.ErrVCS)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: git %s: %s", apperr.ErrVCS, args[0], msg)
	}
	return stdout.String(), nil
}

// Add stages every change under pathspec, removals included.
func (r *Repo) Add(ctx context.Context, pathspec string) error {
	_, err := r.run(ctx, "add", "--all", "--", pathspec)
	return err
}

// StagedChanges returns the difference between the index and the last
// commit, compared from the index towards HEAD: a file that is new in the
// index is reported with status "D" and a file removed from the index with
// status "A". Renames carry the index-side path.
func (r *Repo) StagedChanges(ctx context.Context) ([]models.Change, error) {
	out, err := r.runRaw(ctx, "diff", "--cached", "-R", "--name-status", "-M", "-z", "--no-ext-diff", r.head(ctx))
	if err != nil {
		return nil, err
	}
	return parseNameStatus(out)
}

// head returns HEAD, or the empty tree when HEAD does not resolve.
func (r *Repo) head(ctx context.Context) string {
	if _, err := r.run(ctx, "rev-parse", "--verify", "--quiet", "HEAD"); err != nil {
		return emptyTreeSHA
	}
	return "HEAD"
}

// Commit records the index with message and returns the new HEAD SHA.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	if _, err := r.run(ctx, "commit", "--quiet", "-m", message); err != nil {
		return "", err
	}
	return r.run(ctx, "rev-parse", "HEAD")
}

// Push pushes to remote and branch. Empty values fall back to git's
// configured defaults.
func (r *Repo) Push(ctx context.Context, remote, branch string) error {
	args := []string{"push", "--quiet"}
	if remote != "" {
		args = append(args, remote)
		if branch != "" {
			args = append(args, branch)
		}
	}
	_, err := r.run(ctx, args...)
	return err
}

// parseNameStatus parses "git diff --name-status -z" output: a status
// token followed by one path, or two paths for renames and copies.
func parseNameStatus(out string) ([]models.Change, error) {
	tokens := strings.Split(out, "\x00")
	var changes []models.Change
	for i := 0; i < len(tokens); {
		status := tokens[i]
		if status == "" {
			i++
			continue
		}
		letter := status[:1]
		paths := 1
		if letter == "R" || letter == "C" {
			paths = 2
		}
		if i+paths >= len(tokens) {
			return nil, fmt.Errorf("%w: malformed diff output near %q", apperr.ErrVCS, status)
		}
		changes = append(changes, models.Change{Status: letter, Path: tokens[i+1]})
		i += 1 + paths
	}
	return changes, nil
}
