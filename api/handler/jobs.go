package handler

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/priceprobe/models"
)

// Batch job states.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobPartial    = "partial"
	JobFailed     = "failed"
)

// JobStore holds in-flight and finished batch jobs. Finished jobs expire
// after the configured TTL. It is safe for concurrent use.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.BatchJob
	ttl  time.Duration
	now  func() time.Time
}

// NewJobStore creates a JobStore and starts its expiry loop.
func NewJobStore(ttl time.Duration) *JobStore {
	s := newJobStore(ttl)
	go s.expireLoop()
	return s
}

func newJobStore(ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JobStore{jobs: make(map[string]*models.BatchJob), ttl: ttl, now: time.Now}
}

// create registers a new processing job with room for total results.
func (s *JobStore) create(total int, webhookURL, webhookSecret string) *models.BatchJob {
	job := &models.BatchJob{
		ID:            "batch-" + randomID(),
		Status:        JobProcessing,
		Total:         total,
		Results:       make([]*models.BatchItemResult, total),
		CreatedAt:     s.now().Unix(),
		WebhookURL:    webhookURL,
		WebhookSecret: webhookSecret,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// record stores the result for target idx.
func (s *JobStore) record(job *models.BatchJob, idx int, item *models.BatchItemResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Results[idx] = item
	job.Completed++
}

// finish derives the final status from the recorded results.
func (s *JobStore) finish(job *models.BatchJob) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	failed := 0
	for _, r := range job.Results {
		if r == nil || r.Response == nil || !r.Response.Success {
			failed++
		}
	}
	switch {
	case failed == job.Total:
		job.Status = JobFailed
	case failed > 0:
		job.Status = JobPartial
	default:
		job.Status = JobCompleted
	}
	return job.Status
}

// Status returns a consistent snapshot of job id. Pending results are
// omitted.
func (s *JobStore) Status(id string) (*models.BatchStatusResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return statusOf(job), true
}

// statusOf must be called with s.mu held.
func statusOf(job *models.BatchJob) *models.BatchStatusResponse {
	results := make([]*models.BatchItemResult, 0, job.Completed)
	for _, r := range job.Results {
		if r != nil {
			results = append(results, r)
		}
	}
	return &models.BatchStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Completed: job.Completed,
		Total:     job.Total,
		Results:   results,
	}
}

func (s *JobStore) expire() {
	cutoff := s.now().Add(-s.ttl).Unix()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.Status != JobProcessing && job.CreatedAt < cutoff {
			delete(s.jobs, id)
		}
	}
}

func (s *JobStore) expireLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.expire()
	}
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
