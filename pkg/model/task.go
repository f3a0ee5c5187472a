package model

import (
	"fmt"
	"strings"
	"time"
)

// TaskType tags how a task's daily value is interpreted.
type TaskType int

const (
	Binary TaskType = iota
	Continuous
	Measured
)

func (t TaskType) String() string {
	switch t {
	case Binary:
		return "binary"
	case Continuous:
		return "continuous"
	case Measured:
		return "measured"
	}
	return fmt.Sprintf("TaskType(%d)", int(t))
}

// ParseTaskType accepts the names returned by String.
func ParseTaskType(s string) (TaskType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binary", "":
		return Binary, nil
	case "continuous":
		return Continuous, nil
	case "measured":
		return Measured, nil
	}
	return Binary, fmt.Errorf("unknown task type %q", s)
}

// Task is a recurring task governed by one or more groups.
type Task struct {
	Name        string
	Type        TaskType
	MaxCount    int // Continuous only
	Groups      []string
	Description string
	CreatedOn   time.Time
}

// OneTimeTask exists for a single day and is archived when the day closes.
type OneTimeTask struct {
	ID       string
	Name     string
	Type     TaskType
	Value    float64
	MaxCount int
}

// Complete reports whether value finishes a task of type t. A measured task
// is complete once anything was recorded.
func (t TaskType) Complete(value float64, maxCount int) bool {
	switch t {
	case Continuous:
		return maxCount > 0 && int(value) >= maxCount
	default:
		return value != 0
	}
}
