package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusRunning JobStatus = "running"
	StatusDone    JobStatus = "done"
	StatusError   JobStatus = "error"
)

type JobResult struct {
	Rows          int      `json:"rows"`
	Dropped       int      `json:"dropped"`
	Sheet         string   `json:"sheet"`
	FacilityTypes []string `json:"facility_types"`
	Output        string   `json:"-"`        // Full path, not exposed
	Filename      string   `json:"filename"` // Just filename for download
}

type Job struct {
	ID        string
	Status    JobStatus
	Logs      []string
	Progress  int // 0-100
	Result    *JobResult
	Error     string
	Mutex     sync.RWMutex
	CreatedAt time.Time
}

func NewJob() *Job {
	return &Job{
		ID:        uuid.New().String(),
		Status:    StatusRunning,
		Logs:      []string{},
		CreatedAt: time.Now(),
	}
}

func (j *Job) Log(msg string) {
	j.Mutex.Lock()
	defer j.Mutex.Unlock()
	j.appendLog(msg)
}

func (j *Job) SetProgress(current, total int, msg string) {
	j.Mutex.Lock()
	defer j.Mutex.Unlock()
	if total > 0 {
		j.Progress = int(float64(current) / float64(total) * 100)
	}
	if msg != "" {
		j.appendLog(msg)
	}
}

func (j *Job) Fail(msg string) {
	j.Mutex.Lock()
	defer j.Mutex.Unlock()
	j.Status = StatusError
	j.Error = msg
	j.Logs = append(j.Logs, "[ERROR] "+msg)
}

func (j *Job) Finish(res *JobResult) {
	j.Mutex.Lock()
	defer j.Mutex.Unlock()
	j.Status = StatusDone
	j.appendLog("Conversion completed.")
	j.Result = res
	j.Progress = 100
}

// caller holds Mutex
func (j *Job) appendLog(msg string) {
	ts := time.Now().Format("15:04:05")
	j.Logs = append(j.Logs, fmt.Sprintf("[%s] %s", ts, msg))
}

// JobStore keeps every job started by the server, keyed by ID.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

func (s *JobStore) Add(j *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

func (s *JobStore) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}
