package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobType identifies the type of job in the queue
type JobType string

const (
	// JobTypeParse reconstructs a stored raw document into a replay
	JobTypeParse JobType = "parse"
)

// Job represents a unit of work in the queue
type Job struct {
	JobID   string  `json:"job_id"`
	Type    JobType `json:"type"`
	TableID string  `json:"table_id"`

	// Perspective is the player id whose view the document was saved from
	Perspective string `json:"perspective,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewParseJob builds a parse job for a stored document
func NewParseJob(tableID, perspective string) *Job {
	return &Job{
		JobID:       uuid.New().String(),
		Type:        JobTypeParse,
		TableID:     tableID,
		Perspective: perspective,
		EnqueuedAt:  time.Now().UTC(),
	}
}

// ToJSON converts the job to JSON bytes for Redis
func (j *Job) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// FromJSON parses a job from JSON bytes
func FromJSON(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
