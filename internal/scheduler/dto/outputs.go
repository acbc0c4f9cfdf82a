package dto

import "github.com/LoganMeitz/votefinder/internal/scheduler/models"

type TaskListResponse struct {
	Tasks []models.Task `json:"tasks"`
}

type ListTasksOutput struct {
	Body TaskListResponse
}

type ExecutionListResponse struct {
	Executions []models.TaskExecution `json:"executions"`
}

type ListExecutionsOutput struct {
	Body ExecutionListResponse
}

type RunTaskOutput struct {
	Body models.TaskExecution
}
