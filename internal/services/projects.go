package services

import (
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"project-planner/backend/internal/models"
)

var ErrProjectWithoutSubTasks = errors.New("project must have at least one sub-task")

type ProjectService interface {
	GetProjects(db *gorm.DB) ([]models.Project, error)
	CreateProjectWithSubTasks(db *gorm.DB, project *models.Project) error
	UpdateSubTaskStatus(db *gorm.DB, id uuid.UUID, completed bool) (models.SubTask, error)
	DeleteProject(db *gorm.DB, id uuid.UUID) error
}

type projectService struct{}

func NewProjectService() ProjectService {
	return &projectService{}
}

func orderedSubTasks(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("position ASC")
}

// GetProjects lists projects newest first, each with its sub-tasks in
// insertion order.
func (s *projectService) GetProjects(db *gorm.DB) ([]models.Project, error) {
	projects := []models.Project{}
	err := db.Preload("SubTasks", orderedSubTasks).
		Order("created_at DESC").
		Order("id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProjectWithSubTasks writes the project row and all of its sub-tasks
// in one transaction. Nothing is written if any insert fails.
func (s *projectService) CreateProjectWithSubTasks(db *gorm.DB, project *models.Project) error {
	if len(project.SubTasks) == 0 {
		return ErrProjectWithoutSubTasks
	}

	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	subTasks := project.SubTasks
	if err := tx.Omit("SubTasks").Create(project).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("create project: %w", err)
	}

	for i := range subTasks {
		subTasks[i].ProjectID = project.ID
		subTasks[i].Position = i
	}
	if err := tx.Create(&subTasks).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("create sub-tasks: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	project.SubTasks = subTasks
	return nil
}

func (s *projectService) UpdateSubTaskStatus(db *gorm.DB, id uuid.UUID, completed bool) (models.SubTask, error) {
	var subTask models.SubTask
	if err := db.First(&subTask, "id = ?", id).Error; err != nil {
		return subTask, err
	}

	result := db.Model(&subTask).Update("completed", completed)
	if result.Error != nil {
		return subTask, result.Error
	}
	if result.RowsAffected == 0 {
		return subTask, gorm.ErrRecordNotFound
	}
	subTask.Completed = completed
	return subTask, nil
}

// DeleteProject removes the project and its sub-tasks together. The explicit
// child delete keeps this correct on stores without enforced foreign keys.
func (s *projectService) DeleteProject(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.SubTask{}).Error; err != nil {
			return fmt.Errorf("delete sub-tasks: %w", err)
		}

		result := tx.Delete(&models.Project{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("delete project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
