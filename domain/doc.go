// Package domain provides the data model shared by every reposync component.
//
// It is a zero-dependency package of plain types: file paths, the sets of
// paths produced by the source and target listers, the plan derived from
// them and the summary of a run. Nothing here performs I/O.
//
// # Sets and plans
//
// A FileSet holds unique FilePaths. The sync plan is two set differences:
//
//	plan := domain.NewSyncPlan(sourceFiles, targetFiles)
//	// plan.ToUpload == source - target
//	// plan.ToDelete == target - source
//
// Presence of a path alone decides the action; contents are never compared.
// Iteration order over a FileSet is unspecified. Sorted exists for stable
// display and tests only.
package domain
