package cron

import (
	"context"
	"fmt"
	"regexp"
)

// Report summarizes what a job run changed.
type Report struct {
	Affected int64
}

// Job is one maintenance task of the cron worker. Name doubles as the lock key
// suffix and the metrics label, so it must be stable.
type Job interface {
	Name() string
	Run(ctx context.Context) (Report, error)
}

var jobName = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Registry holds jobs in registration order, unique by name.
type Registry struct {
	jobs  []Job
	index map[string]int
}

func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{index: map[string]int{}}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("cron job is nil")
	}
	name := job.Name()
	if !jobName.MatchString(name) {
		return fmt.Errorf("cron job name %q must be lowercase kebab-case", name)
	}
	if _, dup := r.index[name]; dup {
		return fmt.Errorf("cron job %q registered twice", name)
	}
	r.index[name] = len(r.jobs)
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy in registration order.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

func (r *Registry) Lookup(name string) (Job, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.jobs[i], true
}
