package cron

import "context"

// Job is one maintenance sweep the worker runs each cycle, such as expiring
// stale provisional bookings or pruning old idempotency keys.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the sweeps in the order the worker should run them.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry from the given jobs, skipping nils so a
// feature-flagged job can simply be left unconstructed.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		registry.jobs = append(registry.jobs, job)
	}
	return registry
}

// Register appends a job to the run order.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the run order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
