package runner

import (
	"context"

	"github.com/sourceplane/foldbatch/internal/model"
)

// ResultHook observes every finished job. Hook errors are logged and never
// change a job's outcome.
type ResultHook interface {
	JobFinished(ctx context.Context, batchID string, job *model.JobDescriptor, result model.JobResult) error
}

// HookFunc adapts a function to ResultHook
type HookFunc func(ctx context.Context, batchID string, job *model.JobDescriptor, result model.JobResult) error

func (f HookFunc) JobFinished(ctx context.Context, batchID string, job *model.JobDescriptor, result model.JobResult) error {
	return f(ctx, batchID, job, result)
}
