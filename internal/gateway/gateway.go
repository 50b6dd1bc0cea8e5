// Package gateway is the single entry point the HTTP layer uses to read and
// mutate tasks and projects. Every operation returns a Result; store and
// generation failures are logged here and reported with a generic message.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"project-planner/backend/internal/apperrors"
	"project-planner/backend/internal/events"
	"project-planner/backend/internal/models"
	"project-planner/backend/internal/planner"
	"project-planner/backend/internal/services"
)

const (
	MsgInvalidFields    = "Invalid fields. Please check your input."
	MsgEmptyPrompt      = "Prompt cannot be empty."
	MsgIncompletePlan   = "Failed to generate project plan text. The AI returned an incomplete plan."
	MsgGenerationFailed = "AI generation failed. Please try a different prompt."
	MsgFetchTasksFailed = "Failed to load tasks."
	MsgCreateTaskFailed = "Failed to create task."
	MsgUpdateTaskFailed = "Failed to update task."
	MsgDeleteTaskFailed = "Failed to delete task."
	MsgFetchProjFailed  = "Failed to load projects."
	MsgCreateProjFailed = "Failed to create project."
	MsgUpdateSubFailed  = "Failed to update sub-task."
	MsgDeleteProjFailed = "Failed to delete project."
)

// Planner produces plans from free-text prompts.
type Planner interface {
	PlanProject(ctx context.Context, prompt string) (*planner.ProjectPlan, error)
	PlanTask(ctx context.Context, prompt string) (*models.TaskFormValues, error)
}

type Gateway struct {
	db       *gorm.DB
	tasks    services.TaskService
	projects services.ProjectService
	planner  Planner
	broker   events.Broker
	logger   *zap.SugaredLogger
}

type Option func(*Gateway)

func WithBroker(b events.Broker) Option {
	return func(g *Gateway) { g.broker = b }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(g *Gateway) { g.logger = l }
}

func New(db *gorm.DB, tasks services.TaskService, projects services.ProjectService, p Planner, opts ...Option) *Gateway {
	g := &Gateway{
		db:       db,
		tasks:    tasks,
		projects: projects,
		planner:  p,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) store(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx)
}

func storeError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
	}
	return apperrors.Persistence("store operation failed", err)
}

func (g *Gateway) publish(ctx context.Context, kind events.Kind, action events.Action, id uuid.UUID) {
	if g.broker == nil {
		return
	}
	if err := g.broker.Publish(ctx, events.NewEvent(kind, action, id)); err != nil {
		g.logger.Warnw("failed to publish refresh event", "kind", kind, "action", action, "id", id, "error", err)
	}
}

func (g *Gateway) GetTasks(ctx context.Context) Result[[]models.Task] {
	tasks, err := g.tasks.GetTasks(g.store(ctx))
	if err != nil {
		g.logger.Errorw("failed to list tasks", "error", err)
		return Fail[[]models.Task](MsgFetchTasksFailed, storeError(err))
	}
	return Ok(tasks)
}

func (g *Gateway) AddTask(ctx context.Context, values models.TaskFormValues) Result[models.Task] {
	if err := models.ValidateTaskForm(values); err != nil {
		return Fail[models.Task](MsgInvalidFields, apperrors.Validation(err.Error()))
	}

	var task models.Task
	task.Apply(values)
	if err := g.tasks.CreateTask(g.store(ctx), &task); err != nil {
		g.logger.Errorw("failed to create task", "title", task.Title, "error", err)
		return Fail[models.Task](MsgCreateTaskFailed, storeError(err))
	}

	g.publish(ctx, events.KindTasks, events.ActionCreated, task.ID)
	return Ok(task)
}

func (g *Gateway) UpdateTask(ctx context.Context, id uuid.UUID, values models.TaskFormValues) Result[models.Task] {
	if err := models.ValidateTaskForm(values); err != nil {
		return Fail[models.Task](MsgInvalidFields, apperrors.Validation(err.Error()))
	}

	task, err := g.tasks.UpdateTask(g.store(ctx), id, values)
	if err != nil {
		g.logger.Errorw("failed to update task", "id", id, "error", err)
		return Fail[models.Task](MsgUpdateTaskFailed, storeError(err))
	}

	g.publish(ctx, events.KindTasks, events.ActionUpdated, task.ID)
	return Ok(task)
}

func (g *Gateway) DeleteTask(ctx context.Context, id uuid.UUID) Result[struct{}] {
	if err := g.tasks.DeleteTask(g.store(ctx), id); err != nil {
		g.logger.Errorw("failed to delete task", "id", id, "error", err)
		return Fail[struct{}](MsgDeleteTaskFailed, storeError(err))
	}

	g.publish(ctx, events.KindTasks, events.ActionDeleted, id)
	return Ok(struct{}{})
}

// PlanTaskWithAI returns generated form values for the user to review. Nothing
// is persisted.
func (g *Gateway) PlanTaskWithAI(ctx context.Context, prompt string) Result[models.TaskFormValues] {
	values, err := g.planner.PlanTask(ctx, prompt)
	if err != nil {
		g.logPlanFailure("task", prompt, err)
		return Fail[models.TaskFormValues](planFailureMessage(err), err)
	}
	return Ok(*values)
}

func (g *Gateway) GetProjects(ctx context.Context) Result[[]models.Project] {
	projects, err := g.projects.GetProjects(g.store(ctx))
	if err != nil {
		g.logger.Errorw("failed to list projects", "error", err)
		return Fail[[]models.Project](MsgFetchProjFailed, storeError(err))
	}
	return Ok(projects)
}

// PlanProjectWithAI plans a project and persists it with its sub-tasks in one
// transaction.
func (g *Gateway) PlanProjectWithAI(ctx context.Context, prompt string) Result[models.Project] {
	plan, err := g.planner.PlanProject(ctx, prompt)
	if err != nil {
		g.logPlanFailure("project", prompt, err)
		return Fail[models.Project](planFailureMessage(err), err)
	}
	return g.CreateProject(ctx, *plan)
}

func (g *Gateway) CreateProject(ctx context.Context, plan planner.ProjectPlan) Result[models.Project] {
	project := models.Project{
		Title:    strings.TrimSpace(plan.Title),
		ImageURL: plan.ImageURL,
	}
	for _, st := range plan.SubTasks {
		text := strings.TrimSpace(st.Text)
		if text == "" {
			continue
		}
		project.SubTasks = append(project.SubTasks, models.SubTask{Text: text, Completed: st.Completed})
	}
	if project.Title == "" || len(project.SubTasks) == 0 {
		return Fail[models.Project](MsgInvalidFields, apperrors.Validation("project needs a title and at least one sub-task"))
	}

	if err := g.projects.CreateProjectWithSubTasks(g.store(ctx), &project); err != nil {
		g.logger.Errorw("failed to create project", "title", project.Title, "error", err)
		return Fail[models.Project](MsgCreateProjFailed, storeError(err))
	}

	g.publish(ctx, events.KindProjects, events.ActionCreated, project.ID)
	return Ok(project)
}

func (g *Gateway) UpdateSubTaskStatus(ctx context.Context, id uuid.UUID, completed bool) Result[models.SubTask] {
	subTask, err := g.projects.UpdateSubTaskStatus(g.store(ctx), id, completed)
	if err != nil {
		g.logger.Errorw("failed to update sub-task", "id", id, "completed", completed, "error", err)
		return Fail[models.SubTask](MsgUpdateSubFailed, storeError(err))
	}

	g.publish(ctx, events.KindProjects, events.ActionUpdated, subTask.ProjectID)
	return Ok(subTask)
}

func (g *Gateway) DeleteProject(ctx context.Context, id uuid.UUID) Result[struct{}] {
	if err := g.projects.DeleteProject(g.store(ctx), id); err != nil {
		g.logger.Errorw("failed to delete project", "id", id, "error", err)
		return Fail[struct{}](MsgDeleteProjFailed, storeError(err))
	}

	g.publish(ctx, events.KindProjects, events.ActionDeleted, id)
	return Ok(struct{}{})
}

func (g *Gateway) logPlanFailure(flow, prompt string, err error) {
	if errors.Is(err, apperrors.ErrValidation) {
		return
	}
	g.logger.Errorw("plan generation failed", "flow", flow, "prompt_length", len(prompt), "error", err)
}

func planFailureMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return MsgEmptyPrompt
	case errors.Is(err, apperrors.ErrIncompletePlan):
		return MsgIncompletePlan
	default:
		return MsgGenerationFailed
	}
}
