package model

import "time"

// JobResult is the outcome of one job: success when Err is nil
type JobResult struct {
	JobID string
	Name  string
	Err   error
}

func (r JobResult) OK() bool {
	return r.Err == nil
}

// JobFailure is one entry of the failure mapping
type JobFailure struct {
	JobID   string `json:"jobId" yaml:"jobId"`
	Message string `json:"message" yaml:"message"`
}

// BatchRunReport accumulates outcomes for one batch
type BatchRunReport struct {
	BatchID        string          `json:"batchId" yaml:"batchId"`
	Submitted      int             `json:"submitted" yaml:"submitted"`
	Succeeded      int             `json:"succeeded" yaml:"succeeded"`
	Failures       []JobFailure    `json:"failures" yaml:"failures"`
	InvalidLigands []RecordFailure `json:"invalidLigands,omitempty" yaml:"invalidLigands,omitempty"`
	StartedAt      time.Time       `json:"startedAt" yaml:"startedAt"`
	FinishedAt     time.Time       `json:"finishedAt" yaml:"finishedAt"`
}

// NewBatchRunReport creates an empty report
func NewBatchRunReport(batchID string) *BatchRunReport {
	return &BatchRunReport{
		BatchID:  batchID,
		Failures: []JobFailure{},
	}
}

// Record folds one job result into the report
func (r *BatchRunReport) Record(result JobResult) {
	r.Submitted++
	if result.OK() {
		r.Succeeded++
		return
	}
	r.Failures = append(r.Failures, JobFailure{JobID: result.JobID, Message: result.Err.Error()})
}

// Failed returns the failure mapping keyed by job id
func (r *BatchRunReport) Failed() map[string]string {
	out := make(map[string]string, len(r.Failures))
	for _, f := range r.Failures {
		out[f.JobID] = f.Message
	}
	return out
}

// Processed is the number of jobs that reached a terminal outcome
func (r *BatchRunReport) Processed() int {
	return r.Succeeded + len(r.Failures)
}
