// Package reconcile rebuilds the destination page directory from the tagged
// notes of the source directory.
package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/starford/zettpub/internal/apperr"
	"github.com/starford/zettpub/internal/models"
	"github.com/starford/zettpub/internal/page"
	"github.com/starford/zettpub/internal/storage"
)

// Defaults for Options.
const (
	DefaultNoteExt    = ".md"
	DefaultIgnoreFile = ".gitignore"
)

// Options tunes which files take part in a reconciliation.
type Options struct {
	// NoteExt selects source notes by file name suffix.
	NoteExt string
	// IgnoreFile is the one destination file Clear leaves in place.
	IgnoreFile string
}

// Result summarises one reconciliation.
type Result struct {
	Removed int
	Scanned int
	Pages   []models.Page
}

// Reconciler keeps the destination directory in exact correspondence with
// the tagged notes: it clears every previously published page, then renders
// every currently tagged note again.
type Reconciler struct {
	source   storage.Provider
	dest     storage.Provider
	renderer page.Renderer
	opts     Options
	logger   *slog.Logger
}

// New creates a Reconciler.
func New(source, dest storage.Provider, renderer page.Renderer, opts Options, logger *slog.Logger) *Reconciler {
	if opts.NoteExt == "" {
		opts.NoteExt = DefaultNoteExt
	}
	if opts.IgnoreFile == "" {
		opts.IgnoreFile = DefaultIgnoreFile
	}
	return &Reconciler{
		source:   source,
		dest:     dest,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// Run clears the destination and rebuilds it.
func (r *Reconciler) Run() (*Result, error) {
	removed, err := r.Clear()
	if err != nil {
		return nil, err
	}
	pages, scanned, err := r.Rebuild()
	if err != nil {
		return nil, err
	}
	r.logger.Info("reconcile: done",
		slog.Int("removed", removed),
		slog.Int("scanned", scanned),
		slog.Int("published", len(pages)))
	return &Result{Removed: removed, Scanned: scanned, Pages: pages}, nil
}

// Clear removes every regular file in the destination except the ignore
// file. Subdirectories are left untouched.
func (r *Reconciler) Clear() (int, error) {
	metas, err := r.dest.List("")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}
	removed := 0
	for _, m := range metas {
		if m.Name == r.opts.IgnoreFile {
			continue
		}
		if err := r.dest.Delete(m.Name); err != nil {
			return removed, fmt.Errorf("%w: %w", apperr.ErrIO, err)
		}
		removed++
		r.logger.Debug("reconcile: removed", slog.String("file", m.Name))
	}
	return removed, nil
}

// Rebuild renders every tagged note into the destination. It returns the
// published pages in listing order and the number of notes scanned.
// Notes resolving to the same identifier overwrite each other; the last one
// listed wins.
func (r *Reconciler) Rebuild() ([]models.Page, int, error) {
	notes, err := r.source.List(r.opts.NoteExt)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", apperr.ErrIO, err)
	}

	var pages []models.Page
	byID := make(map[string]int, len(notes))
	for _, n := range notes {
		data, err := r.source.Read(n.Name)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", apperr.ErrIO, err)
		}
		id, ok := r.renderer.Marker.Find(data)
		if !ok {
			continue
		}

		content, err := r.renderer.Render(n.Name, data)
		if err != nil {
			return nil, 0, err
		}
		file := r.renderer.FileName(id)
		if err := r.dest.Write(file, content); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", apperr.ErrIO, err)
		}

		p := models.Page{
			ID:       id,
			Source:   n.Name,
			Title:    page.Title(n.Name),
			File:     file,
			Checksum: page.Checksum(content),
		}
		if i, dup := byID[id]; dup {
			r.logger.Debug("reconcile: identifier reused",
				slog.String("id", id),
				slog.String("previous", pages[i].Source),
				slog.String("source", n.Name))
			pages = append(pages[:i], pages[i+1:]...)
			for j := i; j < len(pages); j++ {
				byID[pages[j].ID] = j
			}
		}
		byID[id] = len(pages)
		pages = append(pages, p)
		r.logger.Debug("reconcile: published", slog.String("source", n.Name), slog.String("file", file))
	}
	return pages, len(notes), nil
}
