package reconcile

import (
	"github.com/input-output-hk/reposync/domain"
)

// Operation is one planned mutation of the target.
type Operation struct {
	// Action is the mutation to perform.
	Action domain.Action

	// Path is the source path, identical to the object key.
	Path domain.FilePath
}

// Planner derives operations from the source and target listings.
type Planner struct{}

// NewPlanner creates a planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan returns the sync plan for source and target.
func (p *Planner) Plan(source, target domain.FileSet) domain.SyncPlan {
	return domain.NewSyncPlan(source, target)
}

// Operations flattens plan into uploads followed by deletes, each in
// lexical order so logs are stable between runs.
func (p *Planner) Operations(plan domain.SyncPlan) []Operation {
	ops := make([]Operation, 0, plan.ToUpload.Len()+plan.ToDelete.Len())
	for _, path := range plan.ToUpload.Sorted() {
		ops = append(ops, Operation{Action: domain.ActionUpload, Path: path})
	}
	for _, path := range plan.ToDelete.Sorted() {
		ops = append(ops, Operation{Action: domain.ActionDelete, Path: path})
	}
	return ops
}
