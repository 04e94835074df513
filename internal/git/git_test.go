package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/zettpub/internal/apperr"
	"github.com/starford/zettpub/internal/models"
	"github.com/starford/zettpub/internal/testutil"
)

func TestParseNameStatus(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []models.Change
		wantErr bool
	}{
		{name: "empty", in: ""},
		{
			name: "mixed",
			in:   "D\x00z/new.md\x00A\x00z/gone.md\x00M\x00z/edit.md\x00R097\x00z/renamed.md\x00z/original.md\x00",
			want: []models.Change{
				{Status: "D", Path: "z/new.md"},
				{Status: "A", Path: "z/gone.md"},
				{Status: "M", Path: "z/edit.md"},
				{Status: "R", Path: "z/renamed.md"},
			},
		},
		{
			name: "path with spaces and tabs",
			in:   "M\x00z/a b\tc.md\x00",
			want: []models.Change{{Status: "M", Path: "z/a b\tc.md"}},
		},
		{name: "truncated rename", in: "R100\x00z/only-one.md", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseNameStatus(tc.in)
			if tc.wantErr {
				if !errors.Is(err, apperr.ErrVCS) {
					t.Fatalf("error = %v, want ErrVCS", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("changes = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestOpen_NotARepo(t *testing.T) {
	testutil.RequireGit(t)
	_, err := Open(context.Background(), t.TempDir())
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("Open error = %v, want ErrConfig", err)
	}
}

func TestStagedChanges_Directions(t *testing.T) {
	ctx := context.Background()
	root := testutil.GitRepo(t, "z")
	pages := filepath.Join(root, "z")
	testutil.WriteFile(t, pages, "keep.md", "keep\n")
	testutil.WriteFile(t, pages, "gone.md", "gone\n")
	testutil.WriteFile(t, pages, "old-name.md", "a page long enough to be detected as a rename\nwith two lines\n")
	testutil.Git(t, root, "add", "--all")
	testutil.Git(t, root, "commit", "--quiet", "-m", "pages")

	repo, err := Open(ctx, root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	testutil.WriteFile(t, pages, "keep.md", "kept and edited\n")
	testutil.WriteFile(t, pages, "fresh.md", "fresh\n")
	if err := os.Remove(filepath.Join(pages, "gone.md")); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(filepath.Join(pages, "old-name.md"), filepath.Join(pages, "new-name.md")); err != nil {
		t.Fatal(err)
	}
	if err := repo.Add(ctx, "z"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	changes, err := repo.StagedChanges(ctx)
	if err != nil {
		t.Fatalf("StagedChanges: %v", err)
	}
	got := make(map[string]string, len(changes))
	for _, c := range changes {
		got[c.Path] = c.Status
	}
	want := map[string]string{
		"z/fresh.md":    "D",
		"z/gone.md":     "A",
		"z/keep.md":     "M",
		"z/new-name.md": "R",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("changes = %v, want %v", got, want)
	}
}

func TestCommitAndPush(t *testing.T) {
	ctx := context.Background()
	root := testutil.GitRepo(t, "z")
	repo, err := Open(ctx, root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	testutil.WriteFile(t, filepath.Join(root, "z"), "page.md", "page\n")
	if err := repo.Add(ctx, "z"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sha, err := repo.Commit(ctx, "Zettle publisher: add page.md")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(sha) < 40 {
		t.Errorf("sha = %q", sha)
	}
	if err := repo.Push(ctx, "", ""); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if remote := testutil.Git(t, root, "rev-parse", "origin/main"); remote != sha {
		t.Errorf("origin/main = %s, want %s", remote, sha)
	}

	changes, err := repo.StagedChanges(ctx)
	if err != nil {
		t.Fatalf("StagedChanges: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("changes after commit = %+v", changes)
	}
}

func TestCommit_NothingStagedFails(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, testutil.GitRepo(t, "z"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := repo.Commit(ctx, "empty"); !errors.Is(err, apperr.ErrVCS) {
		t.Fatalf("Commit error = %v, want ErrVCS", err)
	}
}

func TestStagedChanges_NoCommitYet(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()
	root := t.TempDir()
	testutil.Git(t, root, "init", "--quiet")
	testutil.WriteFile(t, root, "first.md", "first\n")
	testutil.Git(t, root, "add", "--all")

	repo, err := Open(ctx, root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	changes, err := repo.StagedChanges(ctx)
	if err != nil {
		t.Fatalf("StagedChanges: %v", err)
	}
	if len(changes) != 1 || changes[0].Status != "D" || changes[0].Path != "first.md" {
		t.Errorf("changes = %+v", changes)
	}
}
