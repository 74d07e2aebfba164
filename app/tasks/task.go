package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypePollCycle     TaskType = "poll_cycle"
	TaskTypeProcessFiling TaskType = "process_filing"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSubject() string
	Start()
	GetDuration() time.Duration
}

// Task executes at most once per enqueue. A failed poll cycle is retried by
// the next scheduled cycle; a failed filing is retried when a later cycle
// sees the same entry again.
type Task struct {
	ID        string
	Type      TaskType
	Subject   string
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetSubject() string {
	return t.Subject
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, subject string) Task {
	return Task{
		ID:      uuid.NewString(),
		Type:    taskType,
		Subject: subject,
	}
}
