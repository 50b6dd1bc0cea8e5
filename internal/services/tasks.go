package services

import (
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"project-planner/backend/internal/models"
)

type TaskService interface {
	GetTasks(db *gorm.DB) ([]models.Task, error)
	CreateTask(db *gorm.DB, task *models.Task) error
	UpdateTask(db *gorm.DB, id uuid.UUID, values models.TaskFormValues) (models.Task, error)
	DeleteTask(db *gorm.DB, id uuid.UUID) error
}

type taskService struct{}

func NewTaskService() TaskService {
	return &taskService{}
}

// GetTasks lists every task, newest first.
func (s *taskService) GetTasks(db *gorm.DB) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := db.Order("created_at DESC").Order("id DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *taskService) CreateTask(db *gorm.DB, task *models.Task) error {
	return db.Create(task).Error
}

// UpdateTask overwrites the editable fields. gorm.ErrRecordNotFound is
// returned when no task has the id.
func (s *taskService) UpdateTask(db *gorm.DB, id uuid.UUID, values models.TaskFormValues) (models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		return task, err
	}

	task.Apply(values)
	if err := db.Save(&task).Error; err != nil {
		return task, err
	}
	return task, nil
}

func (s *taskService) DeleteTask(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&models.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
