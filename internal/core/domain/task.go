package domain

import (
	"math"
	"strings"
	"time"
)

// TaskStatus represents the lifecycle state of a task. Any status may move
// to any other status.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// OpenStatuses are the statuses that count as unfinished work.
var OpenStatuses = []TaskStatus{StatusTodo, StatusInProgress}

// ParseStatus resolves a status name case-insensitively.
func ParseStatus(s string) (TaskStatus, error) {
	switch TaskStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusTodo:
		return StatusTodo, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusDone:
		return StatusDone, nil
	default:
		return "", ErrInvalidStatus
	}
}

// ParsePriority resolves a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	default:
		return "", ErrInvalidPriority
	}
}

// IsOpen reports whether the status is TODO or IN_PROGRESS.
func (s TaskStatus) IsOpen() bool {
	return s == StatusTodo || s == StatusInProgress
}

// Task belongs to exactly one project and is assigned to one member of it.
// The membership check happens once, at creation.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     time.Time  `json:"due_date"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	ProjectID   string     `json:"project_id"`
	MemberID    string     `json:"member_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TaskStats aggregates the tasks of every project a manager owns.
type TaskStats struct {
	TotalTasks           int64
	TasksInProgress      int64
	InProgressPercentage float64
}

// NewTaskStats computes the in-progress percentage rounded to two decimals.
func NewTaskStats(total, inProgress int64) TaskStats {
	stats := TaskStats{TotalTasks: total, TasksInProgress: inProgress}
	if total > 0 {
		stats.InProgressPercentage = math.Round(float64(inProgress)*10000/float64(total)) / 100
	}
	return stats
}

// DueDateIsFuture reports whether due falls on a calendar day strictly after
// the day of now (both taken in UTC).
func DueDateIsFuture(due, now time.Time) bool {
	today := truncateDay(now)
	return truncateDay(due).After(today)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
