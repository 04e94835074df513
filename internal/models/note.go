// Package models defines the domain types shared by the publisher packages.
package models

import "time"

// NoteMetadata describes a regular file found in a flat directory listing.
type NoteMetadata struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Page is a published page written into the destination directory.
type Page struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Title    string `json:"title"`
	File     string `json:"file"`
	Checksum string `json:"checksum"`
}

// Change is one entry of the staged diff, as reported by git.
// Status is the raw git status letter (A, D, M, R or T) and Path the
// index-side path of the entry.
type Change struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

// Run is the outcome of one publish run.
type Run struct {
	ID          int64     `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Message     string    `json:"message"`
	Commit      string    `json:"commit,omitempty"`
	Pushed      bool      `json:"pushed"`
	NothingToDo bool      `json:"nothing_to_do"`
	Pages       []Page    `json:"pages,omitempty"`
}
