package routes

import (
	"context"

	"github.com/LoganMeitz/votefinder/internal/scheduler/dto"
	"github.com/LoganMeitz/votefinder/internal/scheduler/services"
	"github.com/LoganMeitz/votefinder/pkg/handlers"
	"github.com/LoganMeitz/votefinder/pkg/middleware"

	"github.com/danielgtaylor/huma/v2"
)

type Routes struct {
	engine *services.Engine
	auth   *middleware.HumaAuth
}

func NewRoutes(engine *services.Engine, auth *middleware.HumaAuth) *Routes {
	return &Routes{engine: engine, auth: auth}
}

func (r *Routes) RegisterUnifiedRoutes(api huma.API, basePath string) {
	tags := []string{"Scheduler"}

	huma.Register(api, huma.Operation{OperationID: "scheduler-tasks", Method: "GET", Path: basePath + "/tasks",
		Summary: "List scheduled tasks", Tags: tags}, r.listTasks)
	huma.Register(api, huma.Operation{OperationID: "scheduler-executions", Method: "GET", Path: basePath + "/executions",
		Summary: "List task runs", Tags: tags}, r.listExecutions)
	huma.Register(api, huma.Operation{OperationID: "scheduler-run", Method: "POST", Path: basePath + "/tasks/{name}/run",
		Summary: "Run a task now", Description: "Runs the task and waits for it to finish.", Tags: tags}, r.runTask)
}

func (r *Routes) requireAdmin(h dto.AuthHeaders) error {
	_, err := r.auth.RequirePermission(h.Authorization, h.Cookie, middleware.ResourceScheduler, middleware.ActionAdmin)
	return err
}

func (r *Routes) listTasks(ctx context.Context, input *dto.ListTasksInput) (*dto.ListTasksOutput, error) {
	if err := r.requireAdmin(input.AuthHeaders); err != nil {
		return nil, err
	}
	return &dto.ListTasksOutput{Body: dto.TaskListResponse{Tasks: r.engine.Tasks()}}, nil
}

func (r *Routes) listExecutions(ctx context.Context, input *dto.ListExecutionsInput) (*dto.ListExecutionsOutput, error) {
	if err := r.requireAdmin(input.AuthHeaders); err != nil {
		return nil, err
	}
	execs, err := r.engine.Executions(ctx, input.Task, input.Limit)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to list executions")
	}
	return &dto.ListExecutionsOutput{Body: dto.ExecutionListResponse{Executions: execs}}, nil
}

func (r *Routes) runTask(ctx context.Context, input *dto.RunTaskInput) (*dto.RunTaskOutput, error) {
	if err := r.requireAdmin(input.AuthHeaders); err != nil {
		return nil, err
	}
	exec, err := r.engine.RunNow(ctx, input.Name)
	if err != nil {
		return nil, handlers.HumaError(err, "Failed to run task")
	}
	return &dto.RunTaskOutput{Body: *exec}, nil
}
