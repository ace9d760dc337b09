package server

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/api"
	"github.com/muurk/labelgen/internal/files"
	"github.com/muurk/labelgen/internal/labels"
	"github.com/muurk/labelgen/internal/logging"
)

// maxJobs is how many finished jobs are remembered.
const maxJobs = 100

// ErrShuttingDown is returned by Submit once Close has been called.
var ErrShuttingDown = errors.New("server is shutting down")

type job struct {
	api.Job
	dir string
}

// JobManager runs label generation jobs one at a time in the background
// and keeps their status for polling.
type JobManager struct {
	mu     sync.Mutex
	jobs   map[string]*job
	order  []string
	closed bool

	sem     chan struct{}
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	publish func(api.Event)
	log     *zap.Logger
}

// NewJobManager creates a manager. publish receives a job event on every
// status change and may be nil.
func NewJobManager(publish func(api.Event)) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())
	if publish == nil {
		publish = func(api.Event) {}
	}
	return &JobManager{
		jobs:    make(map[string]*job),
		sem:     make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		publish: publish,
		log:     logging.Named("jobs"),
	}
}

// Submit queues a generation run. dir is the job's output directory and
// must be the generator's OutputDir. Returns the queued job.
func (m *JobManager) Submit(gen *labels.Generator, reqs []labels.Request, dir string) (api.Job, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return api.Job{}, ErrShuttingDown
	}
	j := &job{
		Job: api.Job{
			ID:      uuid.NewString(),
			Status:  api.JobQueued,
			Message: "Waiting for earlier jobs",
			Created: time.Now(),
		},
		dir: dir,
	}
	m.jobs[j.ID] = j
	m.order = append(m.order, j.ID)
	m.evictLocked()
	snap := j.Job
	m.wg.Add(1)
	m.mu.Unlock()

	m.log.Info("Job queued", zap.String("job", j.ID), zap.Int("requests", len(reqs)))
	m.publish(api.Event{Type: api.EventJob, Job: &snap})

	go m.run(j.ID, gen, reqs)
	return snap, nil
}

func (m *JobManager) run(id string, gen *labels.Generator, reqs []labels.Request) {
	defer m.wg.Done()

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-m.ctx.Done():
		m.finish(id, nil, m.ctx.Err())
		return
	}

	m.update(id, func(j *api.Job) {
		j.Status = api.JobRunning
		j.Message = "Starting"
	})

	result, err := gen.Generate(m.ctx, reqs, func(ev labels.Event) {
		m.update(id, func(j *api.Job) {
			j.Stage = ev.Stage.String()
			j.Percent = ev.Percent
			j.Message = ev.Message
		})
	})
	m.finish(id, result, err)
}

func (m *JobManager) update(id string, fn func(*api.Job)) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	fn(&j.Job)
	snap := j.Job
	m.mu.Unlock()

	m.publish(api.Event{Type: api.EventJob, Job: &snap})
}

func (m *JobManager) finish(id string, result *labels.Result, err error) {
	m.update(id, func(j *api.Job) {
		j.Finished = time.Now()
		if err != nil {
			j.Status = api.JobFailed
			j.Error = err.Error()
			j.Message = "Generation failed"
			return
		}
		j.Status = api.JobDone
		j.Percent = 100
		j.Stage = labels.StageDone.String()
		j.Message = result.Message()
		j.Pages = result.Pages
		j.Labels = result.Labels
		j.MissingImages = result.MissingImages
		for _, f := range result.Files {
			j.Files = append(j.Files, filepath.Base(f))
		}
	})

	if err != nil {
		m.log.Warn("Job failed", zap.String("job", id), zap.Error(err))
	} else {
		m.log.Info("Job finished", zap.String("job", id), zap.Int("files", len(result.Files)))
	}
}

// evictLocked drops the oldest finished jobs beyond maxJobs.
func (m *JobManager) evictLocked() {
	for len(m.order) > maxJobs {
		evicted := false
		for i, id := range m.order {
			if m.jobs[id].Status.Finished() {
				delete(m.jobs, id)
				m.order = append(m.order[:i], m.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}

// Get returns a snapshot of a job.
func (m *JobManager) Get(id string) (api.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return api.Job{}, false
	}
	return j.Job, true
}

// List returns all remembered jobs, newest first.
func (m *JobManager) List() []api.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.Job)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Created.After(out[k].Created) })
	return out
}

// FilePath returns the path of an output file produced by a finished job.
// Only names listed in the job's Files are served.
func (m *JobManager) FilePath(id, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return "", fmt.Errorf("job %s: %w", id, files.ErrNotFound)
	}
	for _, f := range j.Files {
		if f == name {
			return filepath.Join(j.dir, f), nil
		}
	}
	return "", fmt.Errorf("%s in job %s: %w", name, id, files.ErrNotFound)
}

// Close cancels running jobs and waits for them to stop.
func (m *JobManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}
