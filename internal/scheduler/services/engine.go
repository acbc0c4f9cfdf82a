package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LoganMeitz/votefinder/internal/scheduler/models"
	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const defaultTaskTimeout = 5 * time.Minute

// Parser reads six-field cron expressions, seconds first.
var Parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// TaskFunc does the work of a task and returns a one-line summary.
type TaskFunc func(ctx context.Context) (string, error)

// Definition is a task known to the engine.
type Definition struct {
	Name        string
	Description string
	Schedule    string
	Timeout     time.Duration
	Run         TaskFunc
}

type entry struct {
	def     Definition
	id      cron.EntryID
	running bool
	lastRun *time.Time
}

// Engine runs registered tasks on their cron schedule and on demand. A task never overlaps
// itself: inside the process a flag guards it, across processes a Redis lock does.
type Engine struct {
	cron   *cron.Cron
	store  ExecutionStore
	redis  *database.Redis
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	tasks map[string]*entry
	order []string
}

// NewEngine builds an engine; redis may be nil for a single instance.
func NewEngine(store ExecutionStore, redis *database.Redis) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cron:   cron.New(cron.WithParser(Parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		store:  store,
		redis:  redis,
		now:    func() time.Time { return time.Now().UTC() },
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[string]*entry),
	}
}

// Register schedules a task. Names must be unique.
func (e *Engine) Register(def Definition) error {
	if def.Name == "" || def.Run == nil {
		return fmt.Errorf("task needs a name and a function")
	}
	if def.Timeout <= 0 {
		def.Timeout = defaultTaskTimeout
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tasks[def.Name]; ok {
		return fmt.Errorf("task %s is already registered: %w", def.Name, tally.ErrConflict)
	}

	name := def.Name
	id, err := e.cron.AddFunc(def.Schedule, func() {
		if _, err := e.run(e.ctx, name, models.TriggerCron); err != nil {
			slog.Warn("Scheduled task did not run", "task", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q for task %s: %w", def.Schedule, def.Name, err)
	}
	e.tasks[name] = &entry{def: def, id: id}
	e.order = append(e.order, name)
	slog.Info("Task registered", "task", name, "schedule", def.Schedule)
	return nil
}

func (e *Engine) Start() {
	e.cron.Start()
	slog.Info("Scheduler engine started", "tasks", len(e.order))
}

// Stop waits for running tasks to finish.
func (e *Engine) Stop() {
	<-e.cron.Stop().Done()
	e.cancel()
	e.wg.Wait()
	slog.Info("Scheduler engine stopped")
}

// Tasks lists registered tasks in registration order.
func (e *Engine) Tasks() []models.Task {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.Task, 0, len(e.order))
	for _, name := range e.order {
		t := e.tasks[name]
		task := models.Task{
			Name:        name,
			Description: t.def.Description,
			Schedule:    t.def.Schedule,
			Timeout:     models.Duration(t.def.Timeout),
			Running:     t.running,
			LastRun:     t.lastRun,
		}
		if next := e.cron.Entry(t.id).Next; !next.IsZero() {
			task.NextRun = &next
		}
		out = append(out, task)
	}
	return out
}

// RunNow runs a task immediately and waits for it. The run outlives a cancelled caller.
func (e *Engine) RunNow(ctx context.Context, name string) (*models.TaskExecution, error) {
	return e.run(context.WithoutCancel(ctx), name, models.TriggerManual)
}

func (e *Engine) Executions(ctx context.Context, taskName string, limit int) ([]models.TaskExecution, error) {
	return e.store.ListExecutions(ctx, taskName, limit)
}

func (e *Engine) claim(name string) (*entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[name]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", name, tally.ErrNotFound)
	}
	if t.running {
		return nil, fmt.Errorf("task %s is already running: %w", name, tally.ErrConflict)
	}
	t.running = true
	return t, nil
}

func (e *Engine) release(t *entry, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t.running = false
	t.lastRun = &at
}

func (e *Engine) run(ctx context.Context, name string, trigger models.Trigger) (*models.TaskExecution, error) {
	t, err := e.claim(name)
	if err != nil {
		return nil, err
	}
	e.wg.Add(1)
	defer e.wg.Done()

	started := e.now()
	defer e.release(t, started)

	ctx, cancel := context.WithTimeout(ctx, t.def.Timeout)
	defer cancel()

	if e.redis != nil {
		token := uuid.NewString()
		key := "votefinder:lock:task:" + name
		ok, err := e.redis.TryLock(ctx, key, token, t.def.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to take task lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("task %s is running on another instance: %w", name, tally.ErrConflict)
		}
		defer func() {
			if err := e.redis.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				slog.Warn("Failed to release task lock", "task", name, "error", err)
			}
		}()
	}

	exec := &models.TaskExecution{
		ID:        uuid.NewString(),
		TaskName:  name,
		Trigger:   trigger,
		Status:    models.ExecutionRunning,
		StartedAt: started,
	}
	if err := e.store.InsertExecution(ctx, exec); err != nil {
		slog.Error("Failed to record task start", "task", name, "error", err)
	}

	output, runErr := t.def.Run(ctx)

	done := e.now()
	exec.CompletedAt = &done
	exec.Duration = models.Duration(done.Sub(started))
	exec.Output = output
	exec.Status = models.ExecutionCompleted
	if runErr != nil {
		exec.Status = models.ExecutionFailed
		exec.Error = runErr.Error()
		slog.Error("Task failed", "task", name, "trigger", trigger, "duration", done.Sub(started), "error", runErr)
	} else {
		slog.Info("Task completed", "task", name, "trigger", trigger, "duration", done.Sub(started), "output", output)
	}

	if err := e.store.FinishExecution(context.WithoutCancel(ctx), exec); err != nil {
		slog.Error("Failed to record task result", "task", name, "error", err)
	}
	return exec, nil
}
