package internal

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/zettpub/internal/apperr"
	"github.com/starford/zettpub/internal/testutil"
)

func gitConfig(t *testing.T) (*Config, string) {
	t.Helper()
	repo := testutil.GitRepo(t, DefaultSubpath)
	cfg := NewDefaultConfig()
	cfg.Source.Path = t.TempDir()
	cfg.Repo.Path = repo
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	return cfg, repo
}

func TestPublish_RequiresConfig(t *testing.T) {
	_, err := Publish(context.Background(), WithLogger(testutil.Logger()))
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
}

func TestPublish_MissingPathsIsConfigError(t *testing.T) {
	_, err := Publish(context.Background(), WithConfig(NewDefaultConfig()), WithLogger(testutil.Logger()))
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
	if apperr.ExitCode(err) != apperr.ExitConfig {
		t.Errorf("exit code = %d", apperr.ExitCode(err))
	}
}

func TestPublish_RepoMustBeGitWorkTree(t *testing.T) {
	testutil.RequireGit(t)
	cfg := NewDefaultConfig()
	cfg.Source.Path = t.TempDir()
	cfg.Repo.Path = t.TempDir()
	cfg.History.Path = ""
	_, err := Publish(context.Background(), WithConfig(cfg), WithLogger(testutil.Logger()))
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
}

func TestPublish_HistoryAndPages(t *testing.T) {
	ctx := context.Background()
	cfg, repo := gitConfig(t)
	cfg.Pages.Exclude = true
	testutil.WriteFile(t, cfg.Source.Path, "idea.md", "Some text\n#PublishToPages(my-idea)\nMore text\n")

	run, err := Publish(ctx, WithConfig(cfg), WithLogger(testutil.Logger()))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if run.Message != "Zettle publisher: add my-idea.md" || !run.Pushed {
		t.Errorf("run = %+v", run)
	}
	if got := testutil.ReadFile(t, filepath.Join(repo, "z"), "my-idea.md"); got != "---\nlayout: page\ntitle: idea\nexclude: true\n---\nSome text\nMore text\n" {
		t.Errorf("page = %q", got)
	}

	again, err := Publish(ctx, WithConfig(cfg), WithLogger(testutil.Logger()))
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if !again.NothingToDo {
		t.Errorf("second run = %+v", again)
	}

	runs, err := History(ctx, 10, WithConfig(cfg), WithLogger(testutil.Logger()))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != again.ID || runs[1].Commit != run.Commit {
		t.Errorf("runs = %+v", runs)
	}

	pages, err := Pages(ctx, WithConfig(cfg), WithLogger(testutil.Logger()))
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 || pages[0].File != "my-idea.md" || pages[0].Title != "idea" || !pages[0].Exclude {
		t.Errorf("pages = %+v", pages)
	}
}

func TestHistory_Disabled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.History.Path = ""
	if _, err := History(context.Background(), 5, WithConfig(cfg), WithLogger(testutil.Logger())); !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("error = %v, want ErrConfig", err)
	}
}

func TestNewApplication_InstallsDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := NewDefaultConfig()
	cfg.App.LogLevel = slog.LevelWarn
	app, err := newApplication([]Option{WithConfig(cfg)})
	if err != nil {
		t.Fatalf("newApplication: %v", err)
	}
	if slog.Default() != app.logger {
		t.Error("built logger is not the process default")
	}
	if slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("default logger ignores the configured level")
	}
}

func TestNewApplication_KeepsInjectedLogger(t *testing.T) {
	prev := slog.Default()
	logger := testutil.Logger()
	app, err := newApplication([]Option{WithConfig(NewDefaultConfig()), WithLogger(logger)})
	if err != nil {
		t.Fatalf("newApplication: %v", err)
	}
	if app.logger != logger || slog.Default() != prev {
		t.Error("injected logger must be used without touching the default")
	}
}
