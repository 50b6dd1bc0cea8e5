package monitoring

import "sync/atomic"

const (
	FlowProject = "project"
	FlowTask    = "task"
)

type GenerationStats struct {
	ProjectPlans        int64 `json:"project_plans"`
	ProjectPlanFailures int64 `json:"project_plan_failures"`
	TaskPlans           int64 `json:"task_plans"`
	TaskPlanFailures    int64 `json:"task_plan_failures"`
	ImageFallbacks      int64 `json:"image_fallbacks"`
}

var generationStats GenerationStats

// GenerationRecorder counts planner outcomes into the process-wide stats
// served by MetricsHandler.
type GenerationRecorder struct{}

func (GenerationRecorder) RecordPlan(flow string, err error) {
	switch flow {
	case FlowProject:
		if err != nil {
			atomic.AddInt64(&generationStats.ProjectPlanFailures, 1)
		} else {
			atomic.AddInt64(&generationStats.ProjectPlans, 1)
		}
	case FlowTask:
		if err != nil {
			atomic.AddInt64(&generationStats.TaskPlanFailures, 1)
		} else {
			atomic.AddInt64(&generationStats.TaskPlans, 1)
		}
	}
}

func (GenerationRecorder) RecordImageFallback() {
	atomic.AddInt64(&generationStats.ImageFallbacks, 1)
}

func GetGenerationStats() GenerationStats {
	return GenerationStats{
		ProjectPlans:        atomic.LoadInt64(&generationStats.ProjectPlans),
		ProjectPlanFailures: atomic.LoadInt64(&generationStats.ProjectPlanFailures),
		TaskPlans:           atomic.LoadInt64(&generationStats.TaskPlans),
		TaskPlanFailures:    atomic.LoadInt64(&generationStats.TaskPlanFailures),
		ImageFallbacks:      atomic.LoadInt64(&generationStats.ImageFallbacks),
	}
}
