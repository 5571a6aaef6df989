package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/dgallion1/distill/internal/store"
)

// JobStatus represents the state of a distill job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusLoading     JobStatus = "loading"
	StatusExtracting  JobStatus = "extracting"
	StatusSummarizing JobStatus = "summarizing"
	StatusStoring     JobStatus = "storing"
	StatusCompleted   JobStatus = "completed"
	StatusPartial     JobStatus = "partial"
	StatusFailed      JobStatus = "failed"
	StatusCached      JobStatus = "cached"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusFailed, StatusCached:
		return true
	}
	return false
}

// Job tracks the state of a single book.
type Job struct {
	mu sync.Mutex

	ID   string `json:"job_id"`
	Hash string `json:"hash"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Summary   bool `json:"summary"`
	Sentences int  `json:"sentences"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *store.Record
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalChapters     int      `json:"total_chapters"`
	ChaptersProcessed int      `json:"chapters_processed"`
	ChaptersFound     int      `json:"chapters_found"`
	Errors            []string `json:"errors"`
}

// NewJob creates a queued job for data. The hash is computed from data.
func NewJob(filename string, data []byte, summary bool, sentences int) (*Job, error) {
	id, err := NewJobID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Job{
		ID:        id,
		Hash:      ContentHashHex(data),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Summary:   summary,
		Sentences: sentences,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}, nil
}

// NewJobID returns a prefixed NanoID such as "job-V1StGXR8_Z5jdHi6B-myT".
func NewJobID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	return "job-" + id, nil
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetProgress records how many chapters have been processed.
func (j *Job) SetProgress(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChaptersProcessed = done
	j.Progress.TotalChapters = total
	j.UpdatedAt = time.Now()
}

// SetFound records how many chapters resolved to content.
func (j *Job) SetFound(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChaptersFound = n
	j.UpdatedAt = time.Now()
}

// SetTitle records the book title once loaded.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it is no longer needed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// SetResult attaches the distilled book.
func (j *Job) SetResult(rec *store.Record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = rec
	if rec != nil && j.Title == "" {
		j.Title = rec.Title
	}
}

// Result returns the distilled book, or nil while the job is running.
func (j *Job) Result() *store.Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Hash      string    `json:"hash"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Summary   bool      `json:"summary"`
	Sentences int       `json:"sentences"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		Hash:      j.Hash,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Title:     j.Title,
		Summary:   j.Summary,
		Sentences: j.Sentences,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
