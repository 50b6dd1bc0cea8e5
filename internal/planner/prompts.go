package planner

import (
	"fmt"

	"project-planner/backend/internal/generation"
)

const projectPlannerPrompt = `You are an expert project manager. A user will provide a prompt for a project.
Your task is to generate a concise project plan.
The plan should include:
1.  A clear and concise title for the project.
2.  A list of 3 to 5 actionable sub-tasks to complete the project.

Analyze the user's prompt and create a structured response.

User prompt: %s
`

const taskPlannerPrompt = `You are a task planning assistant. Generate a title, short description, and status for a task based on the following prompt:

Prompt: %s
`

func projectImagePrompt(title string) string {
	return fmt.Sprintf(`Generate a thematic, visually appealing, and modern flat-illustration-style image for a project titled %q.
The image should be simple, symbolic, and use a professional color palette. Do not include any text in the image. The style should be abstract and minimalist.`, title)
}

var projectPlanSchema = generation.Schema{
	Name:        "project_plan",
	Description: "A concise plan for the project the user described.",
	Fields: []generation.Field{
		{Name: "title", Type: "string", Description: "The generated title for the project.", Required: true},
		{Name: "subTasks", Type: "array", Description: "A list of 3 to 5 actionable sub-tasks to complete the project.", Required: true, Items: []generation.Field{
			{Name: "text", Type: "string", Description: "A single, actionable sub-task for the project.", Required: true},
		}},
	},
}

var taskDetailsSchema = generation.Schema{
	Name:        "task_details",
	Description: "Details for a single task.",
	Fields: []generation.Field{
		{Name: "title", Type: "string", Description: "The generated title for the task.", Required: true},
		{Name: "description", Type: "string", Description: "The generated description for the task.", Required: true},
		{Name: "status", Type: "string", Description: "The generated status for the task, in a few words.", Required: true},
	},
}
