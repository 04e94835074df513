// Package publisher runs the publish pipeline: rebuild the pages, stage
// them, summarise the staged diff, commit and push.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/zettpub/internal/models"
	"github.com/starford/zettpub/internal/reconcile"
	"github.com/starford/zettpub/internal/summary"
)

// Reconciler rebuilds the destination directory.
type Reconciler interface {
	Run() (*reconcile.Result, error)
}

// Repository is the destination git repository.
type Repository interface {
	Add(ctx context.Context, pathspec string) error
	StagedChanges(ctx context.Context) ([]models.Change, error)
	Commit(ctx context.Context, message string) (string, error)
	Push(ctx context.Context, remote, branch string) error
}

// Recorder stores finished runs.
type Recorder interface {
	Record(run *models.Run) (int64, error)
}

// Options configures a Publisher.
type Options struct {
	// Subpath is the pages directory relative to the repository root.
	Subpath string
	Remote  string
	Branch  string
	// Push disables the push step when false.
	Push bool
	// History, when set, receives every finished run.
	History Recorder
}

// Publisher runs the pipeline. It is not safe for concurrent use.
type Publisher struct {
	rec    Reconciler
	repo   Repository
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Publisher.
func New(rec Reconciler, repo Repository, opts Options, logger *slog.Logger) *Publisher {
	return &Publisher{
		rec:    rec,
		repo:   repo,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Publish runs the pipeline once. When the rebuild stages no change the
// returned run has NothingToDo set and nothing is committed or pushed.
// Errors are returned as produced by the failing step; the destination
// directory is not restored.
func (p *Publisher) Publish(ctx context.Context) (*models.Run, error) {
	run := &models.Run{StartedAt: p.now()}

	res, err := p.rec.Run()
	if err != nil {
		return nil, err
	}
	run.Pages = res.Pages

	if err := p.repo.Add(ctx, p.opts.Subpath); err != nil {
		return nil, err
	}
	changes, err := p.repo.StagedChanges(ctx)
	if err != nil {
		return nil, err
	}
	msg, ok, err := summary.Message(changes)
	if err != nil {
		return nil, err
	}
	if !ok {
		run.NothingToDo = true
		p.logger.Info("publish: nothing to publish", slog.Int("pages", len(run.Pages)))
		p.finish(run)
		return run, nil
	}

	run.Message = msg
	sha, err := p.repo.Commit(ctx, msg)
	if err != nil {
		return nil, err
	}
	run.Commit = sha
	p.logger.Info("publish: committed", slog.String("commit", sha), slog.String("message", msg))

	if p.opts.Push {
		if err := p.repo.Push(ctx, p.opts.Remote, p.opts.Branch); err != nil {
			return nil, err
		}
		run.Pushed = true
		p.logger.Info("publish: pushed", slog.String("remote", p.opts.Remote), slog.String("branch", p.opts.Branch))
	}

	p.finish(run)
	return run, nil
}

func (p *Publisher) finish(run *models.Run) {
	run.FinishedAt = p.now()
	if p.opts.History == nil {
		return
	}
	// The commit is already made; a lost history entry does not fail the run.
	if _, err := p.opts.History.Record(run); err != nil {
		p.logger.Warn("publish: record history failed", slog.String("error", err.Error()))
	}
}
