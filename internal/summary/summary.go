// Package summary turns the staged diff of the destination repository into
// a one-line commit message.
package summary

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/zettpub/internal/apperr"
	"github.com/starford/zettpub/internal/models"
)

// Prefix starts every commit message.
const Prefix = "Zettle publisher: "

// Kind is the change kind reported in commit messages.
type Kind string

// Reported change kinds.
const (
	KindAdd    Kind = "add"
	KindDelete Kind = "delete"
	KindUpdate Kind = "update"
	KindRename Kind = "rename"
)

// reportedKinds maps raw git status letters to reported kinds.
//
// The staged diff is taken from the index towards the last commit, so the
// added and deleted letters are inverted: a page that is new in the index
// shows up as "D" and is reported as an add, a page removed from the index
// shows up as "A" and is reported as a delete.
var reportedKinds = map[string]Kind{
	"A": KindDelete,
	"D": KindAdd,
	"M": KindUpdate,
	"R": KindRename,
	"T": KindUpdate,
}

// Group is the list of page names reported under one kind.
type Group struct {
	Kind  Kind
	Names []string
}

// Classify groups the base names of changes by reported kind. Kinds appear
// in the order they are first seen, names in diff order.
func Classify(changes []models.Change) ([]Group, error) {
	var groups []Group
	index := make(map[Kind]int, len(reportedKinds))
	for _, c := range changes {
		kind, ok := reportedKinds[c.Status]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported change status %q for %s", apperr.ErrVCS, c.Status, c.Path)
		}
		i, seen := index[kind]
		if !seen {
			i = len(groups)
			index[kind] = i
			groups = append(groups, Group{Kind: kind})
		}
		groups[i].Names = append(groups[i].Names, path.Base(c.Path))
	}
	return groups, nil
}

// Message composes the commit message for changes. It returns false when
// there is nothing to commit.
func Message(changes []models.Change) (string, bool, error) {
	if len(changes) == 0 {
		return "", false, nil
	}
	groups, err := Classify(changes)
	if err != nil {
		return "", false, err
	}
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, string(g.Kind)+" "+strings.Join(g.Names, ", "))
	}
	return Prefix + strings.Join(parts, "; "), true, nil
}
