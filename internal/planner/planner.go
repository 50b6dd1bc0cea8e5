package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"project-planner/backend/internal/apperrors"
	"project-planner/backend/internal/config"
	"project-planner/backend/internal/generation"
	"project-planner/backend/internal/models"
	"project-planner/backend/internal/monitoring"
)

type PlannedSubTask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type ProjectPlan struct {
	Title    string           `json:"title"`
	SubTasks []PlannedSubTask `json:"subTasks"`
	ImageURL string           `json:"imageUrl"`
}

// Recorder receives the outcome of every planning call.
type Recorder interface {
	RecordPlan(flow string, err error)
	RecordImageFallback()
}

type nopRecorder struct{}

func (nopRecorder) RecordPlan(string, error) {}
func (nopRecorder) RecordImageFallback()     {}

type Planner struct {
	text        generation.TextGenerator
	images      generation.ImageGenerator
	placeholder string
	recorder    Recorder
	logger      *zap.SugaredLogger
}

type Option func(*Planner)

func WithPlaceholder(url string) Option {
	return func(p *Planner) {
		if url != "" {
			p.placeholder = url
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Planner) { p.recorder = r }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Planner) { p.logger = l }
}

func New(text generation.TextGenerator, images generation.ImageGenerator, opts ...Option) *Planner {
	p := &Planner{
		text:        text,
		images:      images,
		placeholder: config.DefaultPlaceholderImageURL,
		recorder:    nopRecorder{},
		logger:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// subTaskItem accepts either a bare string or {"text": "..."}; models emit both.
type subTaskItem struct {
	Text string `json:"text" validate:"required"`
}

func (s *subTaskItem) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		s.Text = strings.TrimSpace(text)
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("sub-task must be a string or an object with text: %w", err)
	}
	s.Text = strings.TrimSpace(obj.Text)
	return nil
}

// subTaskList drops blank items while decoding, so the size bounds apply to
// the usable sub-tasks only.
type subTaskList []subTaskItem

func (l *subTaskList) UnmarshalJSON(data []byte) error {
	var items []subTaskItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	kept := make(subTaskList, 0, len(items))
	for _, item := range items {
		if item.Text != "" {
			kept = append(kept, item)
		}
	}
	*l = kept
	return nil
}

type projectReply struct {
	Title    string      `json:"title" validate:"required"`
	SubTasks subTaskList `json:"subTasks" validate:"min=3,max=5,dive"`
}

// taskReply fields are pointers so that a missing or null field fails
// validation while an empty string is still accepted.
type taskReply struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Status      *string `json:"status" validate:"required"`
}

// PlanProject asks the model for a title and 3 to 5 sub-tasks, then for an
// illustration. Only the text step can fail the plan; any image failure is
// replaced by the placeholder.
func (p *Planner) PlanProject(ctx context.Context, prompt string) (plan *ProjectPlan, err error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperrors.Validation("Prompt cannot be empty.")
	}
	defer func() { p.recorder.RecordPlan(monitoring.FlowProject, err) }()

	var reply projectReply
	genErr := p.text.GenerateStructured(ctx, fmt.Sprintf(projectPlannerPrompt, prompt), projectPlanSchema, &reply)
	title := strings.TrimSpace(reply.Title)

	var schemaErr *generation.SchemaError
	decoded := genErr == nil || errors.Is(genErr, generation.ErrEmptyOutput) || errors.As(genErr, &schemaErr)
	if !decoded {
		p.logger.Warnw("project plan generation failed", "prompt", prompt, "error", genErr)
		return nil, genErr
	}
	if title == "" || len(reply.SubTasks) == 0 {
		p.logger.Warnw("incomplete project plan", "prompt", prompt, "error", genErr)
		if genErr != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrIncompletePlan, genErr)
		}
		return nil, apperrors.ErrIncompletePlan
	}
	if genErr != nil {
		p.logger.Warnw("project plan violates schema", "prompt", prompt, "error", genErr)
		return nil, genErr
	}

	plan = &ProjectPlan{
		Title:    title,
		SubTasks: make([]PlannedSubTask, 0, len(reply.SubTasks)),
		ImageURL: p.imageFor(ctx, title),
	}
	for _, st := range reply.SubTasks {
		plan.SubTasks = append(plan.SubTasks, PlannedSubTask{Text: st.Text, Completed: false})
	}
	return plan, nil
}

func (p *Planner) imageFor(ctx context.Context, title string) string {
	if p.images == nil {
		p.recorder.RecordImageFallback()
		return p.placeholder
	}

	ref, err := p.images.GenerateImage(ctx, projectImagePrompt(title))
	if err == nil && usableImageRef(ref) {
		return ref
	}

	if err == nil {
		err = apperrors.ImageGeneration("unusable image reference", nil)
	}
	p.logger.Warnw("image generation failed, using placeholder", "title", title, "error", err)
	p.recorder.RecordImageFallback()
	return p.placeholder
}

func usableImageRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	return strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "data:image/")
}

// PlanTask returns form values for a new task. The values are always valid
// for the task form: the status is mapped and over-long text is truncated.
func (p *Planner) PlanTask(ctx context.Context, prompt string) (values *models.TaskFormValues, err error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperrors.Validation("Prompt cannot be empty.")
	}
	defer func() { p.recorder.RecordPlan(monitoring.FlowTask, err) }()

	var reply taskReply
	if err := p.text.GenerateStructured(ctx, fmt.Sprintf(taskPlannerPrompt, prompt), taskDetailsSchema, &reply); err != nil {
		p.logger.Warnw("task generation failed", "prompt", prompt, "error", err)
		return nil, err
	}

	out := models.TaskFormValues{
		Title:       truncateRunes(strings.TrimSpace(reply.Title), models.TaskTitleMaxLen),
		Description: truncateRunes(strings.TrimSpace(*reply.Description), models.TaskDescriptionMaxLen),
		Status:      MapStatus(*reply.Status),
	}
	if err := models.ValidateTaskForm(out); err != nil {
		return nil, apperrors.Generation("generated task is not a valid task", err)
	}
	return &out, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
