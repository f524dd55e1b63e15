// Package job provides work assignments: a piece of an order given to an employee.
package job

import (
	"context"
	"strings"
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/entity"
	"atelier/internal/core/id"
)

// Status of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Job is a unit of tailoring work.
type Job struct {
	entity.BaseEntity

	Title      string     `db:"title" json:"title"`
	OrderID    *id.ID     `db:"order_id" json:"orderId,omitempty"`
	EmployeeID *id.ID     `db:"employee_id" json:"employeeId,omitempty"`
	Status     Status     `db:"status" json:"status"`
	DueDate    *time.Time `db:"due_date" json:"dueDate,omitempty"`
}

// NewJob creates a pending job.
func NewJob(title string) *Job {
	return &Job{
		BaseEntity: entity.NewBaseEntity(),
		Title:      title,
		Status:     StatusPending,
	}
}

// Validate implements entity.Validatable interface.
func (j *Job) Validate(ctx context.Context) error {
	if strings.TrimSpace(j.Title) == "" {
		return apperror.NewValidation("title is required").
			WithDetail("field", "title")
	}
	switch j.Status {
	case StatusPending, StatusInProgress, StatusDone:
	default:
		return apperror.NewValidation("invalid job status").
			WithDetail("field", "status").
			WithDetail("value", string(j.Status))
	}
	return nil
}

// DisplayFields implements entity.Record.
func (j *Job) DisplayFields() map[string]any {
	return map[string]any{"title": j.Title, "status": string(j.Status)}
}
