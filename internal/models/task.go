package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

const (
	TaskTitleMaxLen       = 100
	TaskDescriptionMaxLen = 500
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string     `json:"title" gorm:"size:100;not null"`
	Description *string    `json:"description,omitempty" gorm:"size:500"`
	Status      TaskStatus `json:"status" gorm:"size:20;not null;default:'PENDING'"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	return assignID(&t.ID)
}

// TaskFormValues is the editable part of a Task, shared by the manual form and the AI planner.
type TaskFormValues struct {
	Title       string     `json:"title" validate:"required,min=1,max=100"`
	Description string     `json:"description,omitempty" validate:"max=500"`
	Status      TaskStatus `json:"status" validate:"required,taskstatus"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return TaskStatus(fl.Field().String()).IsValid()
	})
	return v
}

// Normalize trims surrounding whitespace from the text fields.
func (v TaskFormValues) Normalize() TaskFormValues {
	v.Title = strings.TrimSpace(v.Title)
	v.Description = strings.TrimSpace(v.Description)
	return v
}

func ValidateTaskForm(v TaskFormValues) error {
	return formValidator.Struct(v.Normalize())
}

// Apply copies normalized form values onto the task. An empty description clears it.
func (t *Task) Apply(v TaskFormValues) {
	v = v.Normalize()
	t.Title = v.Title
	t.Status = v.Status
	if v.Description == "" {
		t.Description = nil
	} else {
		desc := v.Description
		t.Description = &desc
	}
}
