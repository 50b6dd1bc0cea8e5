package services

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"project-planner/backend/internal/cache"
	"project-planner/backend/internal/models"
)

const (
	TaskListKey       = "tasks:list"
	TaskKeyPattern    = "tasks:*"
	ProjectListKey    = "projects:list"
	ProjectKeyPattern = "projects:*"

	listTTL = 10 * time.Minute
)

// contextOf recovers the request context carried by db.WithContext.
func contextOf(db *gorm.DB) context.Context {
	if db != nil && db.Statement != nil && db.Statement.Context != nil {
		return db.Statement.Context
	}
	return context.Background()
}

// CachedTaskService is a read-through cache in front of a TaskService.
// Every successful mutation drops all task keys.
type CachedTaskService struct {
	taskService TaskService
	cache       cache.Cache
	logger      *zap.SugaredLogger
}

func NewCachedTaskService(taskService TaskService, cacheInstance cache.Cache, logger *zap.SugaredLogger) *CachedTaskService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
		logger:      logger,
	}
}

func (s *CachedTaskService) GetTasks(db *gorm.DB) ([]models.Task, error) {
	ctx := contextOf(db)

	var cachedTasks []models.Task
	if err := s.cache.Get(ctx, TaskListKey, &cachedTasks); err == nil {
		return cachedTasks, nil
	}

	tasks, err := s.taskService.GetTasks(db)
	if err != nil {
		return tasks, err
	}

	if err := s.cache.Set(ctx, TaskListKey, tasks, listTTL); err != nil {
		s.logger.Warnw("failed to cache task list", "error", err)
	}
	return tasks, nil
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, task *models.Task) error {
	if err := s.taskService.CreateTask(db, task); err != nil {
		return err
	}
	s.invalidate(contextOf(db))
	return nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, id uuid.UUID, values models.TaskFormValues) (models.Task, error) {
	task, err := s.taskService.UpdateTask(db, id, values)
	if err != nil {
		return task, err
	}
	s.invalidate(contextOf(db))
	return task, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, id uuid.UUID) error {
	if err := s.taskService.DeleteTask(db, id); err != nil {
		return err
	}
	s.invalidate(contextOf(db))
	return nil
}

func (s *CachedTaskService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, TaskKeyPattern); err != nil {
		s.logger.Warnw("failed to invalidate task cache", "error", err)
	}
}

// CachedProjectService mirrors CachedTaskService for projects.
type CachedProjectService struct {
	projectService ProjectService
	cache          cache.Cache
	logger         *zap.SugaredLogger
}

func NewCachedProjectService(projectService ProjectService, cacheInstance cache.Cache, logger *zap.SugaredLogger) *CachedProjectService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CachedProjectService{
		projectService: projectService,
		cache:          cacheInstance,
		logger:         logger,
	}
}

func (s *CachedProjectService) GetProjects(db *gorm.DB) ([]models.Project, error) {
	ctx := contextOf(db)

	var cachedProjects []models.Project
	if err := s.cache.Get(ctx, ProjectListKey, &cachedProjects); err == nil {
		return cachedProjects, nil
	}

	projects, err := s.projectService.GetProjects(db)
	if err != nil {
		return projects, err
	}

	if err := s.cache.Set(ctx, ProjectListKey, projects, listTTL); err != nil {
		s.logger.Warnw("failed to cache project list", "error", err)
	}
	return projects, nil
}

func (s *CachedProjectService) CreateProjectWithSubTasks(db *gorm.DB, project *models.Project) error {
	if err := s.projectService.CreateProjectWithSubTasks(db, project); err != nil {
		return err
	}
	s.invalidate(contextOf(db))
	return nil
}

func (s *CachedProjectService) UpdateSubTaskStatus(db *gorm.DB, id uuid.UUID, completed bool) (models.SubTask, error) {
	subTask, err := s.projectService.UpdateSubTaskStatus(db, id, completed)
	if err != nil {
		return subTask, err
	}
	s.invalidate(contextOf(db))
	return subTask, nil
}

func (s *CachedProjectService) DeleteProject(db *gorm.DB, id uuid.UUID) error {
	if err := s.projectService.DeleteProject(db, id); err != nil {
		return err
	}
	s.invalidate(contextOf(db))
	return nil
}

func (s *CachedProjectService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, ProjectKeyPattern); err != nil {
		s.logger.Warnw("failed to invalidate project cache", "error", err)
	}
}
