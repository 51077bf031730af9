package store

import (
	"time"

	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/store/entity"
)

// ─── Tasks Slice ────────────────────────────────────────────────────────────

// TasksState is the durable shape of the scheduling slice.
type TasksState struct {
	Tasks        entity.State[domain.Task] `json:"tasks"`
	SelectedDate time.Time                 `json:"selectedDate"`
	ViewMode     string                    `json:"viewMode"`
}

// TasksSlice owns schedulable tasks plus the planner view state.
type TasksSlice struct {
	st           *Store
	tasks        *entity.Manager[domain.Task]
	selectedDate time.Time
	viewMode     string
	lastUpdated  *time.Time
}

func newTasksSlice(st *Store) *TasksSlice {
	return &TasksSlice{
		st:       st,
		tasks:    entity.NewManager[domain.Task](),
		viewMode: "day",
	}
}

func (t *TasksSlice) touch() {
	now := t.st.now()
	t.lastUpdated = &now
}

// ─── Task Actions ───────────────────────────────────────────────────────────

// CreateTask schedules a new task.
func (t *TasksSlice) CreateTask(title string, date time.Time, startTime string, durationMinutes int, categoryID string, tagIDs []string) (domain.Task, error) {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()

	if title == "" {
		return domain.Task{}, domain.NewValidation("task_title", "task title is required")
	}
	if durationMinutes <= 0 {
		return domain.Task{}, domain.NewValidation("task_duration", "task duration must be positive, got %d", durationMinutes)
	}
	if categoryID != "" && !t.st.focus.categories.Has(categoryID) {
		return domain.Task{}, domain.NewValidation("category_exists", "category %q does not exist", categoryID)
	}

	task := domain.Task{
		Base:       domain.NewBase(t.st.newID(), t.st.now()),
		Title:      title,
		Date:       date,
		StartTime:  startTime,
		Duration:   durationMinutes,
		CategoryID: categoryID,
		TagIDs:     tagIDs,
		Status:     domain.TaskScheduled,
		Progress:   domain.TaskProgress{EstimatedTime: durationMinutes},
	}
	t.tasks.Add(task)
	t.touch()
	t.st.emit(domain.EventTaskCreated, task)
	return task, nil
}

// UpdateTask mutates an existing task.
func (t *TasksSlice) UpdateTask(id string, mutate func(domain.Task) domain.Task) error {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()

	if !t.tasks.Update(id, t.st.now(), mutate) {
		return &domain.NotFoundError{Kind: "task", ID: id}
	}
	t.touch()
	if task, ok := t.tasks.Get(id); ok {
		t.st.emit(domain.EventTaskUpdated, task)
	}
	return nil
}

// CompleteTask marks a task completed.
func (t *TasksSlice) CompleteTask(id string) error {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()

	task, ok := t.tasks.Get(id)
	if !ok {
		return &domain.NotFoundError{Kind: "task", ID: id}
	}
	if task.Status == domain.TaskCompleted {
		return &domain.InvalidStateError{Action: "complete task", State: string(task.Status)}
	}
	t.tasks.Update(id, t.st.now(), func(task domain.Task) domain.Task {
		task.Status = domain.TaskCompleted
		task.Progress.Completed = true
		return task
	})
	t.touch()
	if task, ok := t.tasks.Get(id); ok {
		t.st.emit(domain.EventTaskCompleted, task)
	}
	return nil
}

// DeleteTask removes a task.
func (t *TasksSlice) DeleteTask(id string) error {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()

	task, ok := t.tasks.Get(id)
	if !ok {
		return &domain.NotFoundError{Kind: "task", ID: id}
	}
	t.tasks.Remove(id)
	t.touch()
	t.st.emit(domain.EventTaskDeleted, task)
	return nil
}

// Task returns a task by id.
func (t *TasksSlice) Task(id string) (domain.Task, bool) {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return t.tasks.Get(id)
}

// TasksForDate returns tasks scheduled on the given calendar day.
func (t *TasksSlice) TasksForDate(day time.Time) []domain.Task {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return t.tasks.Query(func(task domain.Task) bool { return task.SameDay(day) })
}

// All returns every task in insertion order.
func (t *TasksSlice) All() []domain.Task {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return t.tasks.All()
}

// SetSelectedDate updates the planner's selected day.
func (t *TasksSlice) SetSelectedDate(day time.Time) {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	t.selectedDate = day
	t.touch()
}

// SetViewMode updates the planner's view mode ("day", "week", "month").
func (t *TasksSlice) SetViewMode(mode string) error {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()

	switch mode {
	case "day", "week", "month":
		t.viewMode = mode
		t.touch()
		return nil
	default:
		return domain.NewValidation("view_mode", "unknown view mode %q", mode)
	}
}

// ─── Reactions / Snapshot ───────────────────────────────────────────────────

// applySessionCompleted accumulates focus time on the linked task. Tasks are
// never mutated directly by session logic, only through this reaction.
// Lock already held.
func (t *TasksSlice) applySessionCompleted(p domain.SessionCompletedPayload) {
	if p.TaskID == "" {
		return
	}
	updated := t.tasks.Update(p.TaskID, t.st.now(), func(task domain.Task) domain.Task {
		task.Progress.FocusTimeSpent += p.DurationMinutes
		task.Progress.ActualTime += p.DurationMinutes
		task.FocusSessionIDs = append(task.FocusSessionIDs, p.SessionID)
		if task.Status == domain.TaskScheduled {
			task.Status = domain.TaskActive
		}
		return task
	})
	if updated {
		t.touch()
		if task, ok := t.tasks.Get(p.TaskID); ok {
			t.st.emit(domain.EventTaskUpdated, task)
		}
	}
}

func (t *TasksSlice) state() TasksState {
	st := TasksState{
		Tasks:        t.tasks.State(),
		SelectedDate: t.selectedDate,
		ViewMode:     t.viewMode,
	}
	st.Tasks.LastUpdated = t.lastUpdated
	return st
}

func (t *TasksSlice) load(st TasksState) {
	t.tasks = entity.FromState(st.Tasks)
	t.selectedDate = st.SelectedDate
	t.viewMode = st.ViewMode
	if t.viewMode == "" {
		t.viewMode = "day"
	}
	t.lastUpdated = st.Tasks.LastUpdated
}
