package domain

import (
	"sort"
	"time"
)

// FilePath is a path relative to the repository root, equal to its object key.
type FilePath = string

// FileSet is a set of unique file paths.
type FileSet map[FilePath]struct{}

// NewFileSet returns a set containing paths.
func NewFileSet(paths ...FilePath) FileSet {
	s := make(FileSet, len(paths))
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts p into the set.
func (s FileSet) Add(p FilePath) {
	s[p] = struct{}{}
}

// Has reports whether p is in the set.
func (s FileSet) Has(p FilePath) bool {
	_, ok := s[p]
	return ok
}

// Len returns the number of paths in the set.
func (s FileSet) Len() int {
	return len(s)
}

// Difference returns the paths in s that are not in other.
func (s FileSet) Difference(other FileSet) FileSet {
	out := make(FileSet)
	for p := range s {
		if !other.Has(p) {
			out.Add(p)
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same paths.
func (s FileSet) Equal(other FileSet) bool {
	if len(s) != len(other) {
		return false
	}
	for p := range s {
		if !other.Has(p) {
			return false
		}
	}
	return true
}

// Sorted returns the paths in lexical order.
func (s FileSet) Sorted() []FilePath {
	out := make([]FilePath, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Snapshot is the source tree as listed at a single resolved revision.
type Snapshot struct {
	// Revision is the commit SHA the branch resolved to.
	Revision string

	// Tree is the SHA of the root tree of Revision.
	Tree string

	// Files holds every blob path of the tree.
	Files FileSet
}

// SyncPlan is the set of actions needed to make the target mirror the source.
type SyncPlan struct {
	// ToUpload holds paths present in the source but missing from the target.
	ToUpload FileSet

	// ToDelete holds keys present in the target but absent from the source.
	ToDelete FileSet
}

// NewSyncPlan derives the plan from the two listings.
func NewSyncPlan(source, target FileSet) SyncPlan {
	return SyncPlan{
		ToUpload: source.Difference(target),
		ToDelete: target.Difference(source),
	}
}

// IsEmpty reports whether the plan has nothing to do.
func (p SyncPlan) IsEmpty() bool {
	return p.ToUpload.Len() == 0 && p.ToDelete.Len() == 0
}

// SkippedFile records an upload candidate whose content could not be fetched.
type SkippedFile struct {
	// Path is the file that was skipped.
	Path FilePath `json:"path"`

	// Reason is the diagnostic for the failure.
	Reason string `json:"reason"`
}

// RunSummary describes the outcome of one reconciliation run.
type RunSummary struct {
	// Revision is the source commit that was mirrored.
	Revision string `json:"revision"`

	// Uploaded is the number of objects written.
	Uploaded int `json:"uploaded"`

	// Deleted is the number of objects removed.
	Deleted int `json:"deleted"`

	// Skipped lists upload candidates that soft-failed.
	Skipped []SkippedFile `json:"skipped,omitempty"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`
}
