package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/export"
)

const alice = "alice@example.com"

type fixedLimit int

func (l fixedLimit) TaskLimit(context.Context, string) (int, error) { return int(l), nil }

type failingLimit struct{}

func (failingLimit) TaskLimit(context.Context, string) (int, error) {
	return 0, errors.New("subscription store down")
}

func newTaskService(t *testing.T, limit TaskLimiter) (*TaskService, *clock, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	clk := newClock()
	svc := NewTaskService(env.states, limit, env.logger, time.UTC, 5*time.Minute, 5*time.Minute)
	svc.now = clk.Now
	return svc, clk, env
}

func TestTaskService_AddTask(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTaskService(t, fixedLimit(0))

	t.Run("parsed priority wins", func(t *testing.T) {
		task, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "urgent: server restart", Priority: domain.PriorityLow})
		require.NoError(t, err)
		assert.Equal(t, "🚨 Server restart", task.Name)
		assert.Equal(t, "High priority task", task.Description)
		assert.Equal(t, domain.PriorityHigh, task.Priority)
	})

	t.Run("request priority and description", func(t *testing.T) {
		task, err := svc.AddTask(ctx, alice, CreateTaskInput{
			Text:        "deploy staging",
			Description: "  after the freeze ",
			Priority:    domain.PriorityLow,
		})
		require.NoError(t, err)
		assert.Equal(t, "⚙️ Staging", task.Name)
		assert.Equal(t, "after the freeze", task.Description)
		assert.Equal(t, domain.PriorityLow, task.Priority)
	})

	t.Run("defaults to medium", func(t *testing.T) {
		task, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "water flowers", Priority: "whatever"})
		require.NoError(t, err)
		assert.Equal(t, domain.PriorityMedium, task.Priority)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "   "})
		assert.ErrorIs(t, err, domain.ErrEmptyTask)
	})

	list, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list.Tasks, 3)
	// Новые задачи в начале списка
	assert.Equal(t, "📝 Water flowers", list.Tasks[0].Name)
	assert.Equal(t, 3, list.Stats.ActiveTasks)
}

func TestTaskService_PlanLimit(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTaskService(t, fixedLimit(2))

	for _, text := range []string{"first thing", "second thing"} {
		_, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: text})
		require.NoError(t, err)
	}

	_, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "third thing"})
	assert.ErrorIs(t, err, domain.ErrPlanLimitReached)

	// Лимит считается по текущему числу задач
	list, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, alice, list.Tasks[0].ID))

	_, err = svc.AddTask(ctx, alice, CreateTaskInput{Text: "third thing"})
	assert.NoError(t, err)

	// Другие пользователи не затронуты
	_, err = svc.AddTask(ctx, "bob@example.com", CreateTaskInput{Text: "bob thing"})
	assert.NoError(t, err)
}

func TestTaskService_LimiterError(t *testing.T) {
	svc, _, _ := newTaskService(t, failingLimit{})
	_, err := svc.AddTask(context.Background(), alice, CreateTaskInput{Text: "anything"})
	assert.Error(t, err)
}

func TestTaskService_UserLocks(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTaskService(t, fixedLimit(0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := alice
			if i%2 == 1 {
				email = fmt.Sprintf("user%d@example.com", i)
			}
			_, err := svc.AddTask(ctx, email, CreateTaskInput{Text: fmt.Sprintf("task number %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Параллельные записи одного пользователя не теряются
	list, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, list.Tasks, 4)

	// Освобождённые блокировки удаляются из карты
	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}

func TestTaskService_Timers(t *testing.T) {
	ctx := context.Background()
	svc, clk, _ := newTaskService(t, fixedLimit(0))

	a, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "write code"})
	require.NoError(t, err)
	b, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "team meeting"})
	require.NoError(t, err)

	started, err := svc.Start(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.True(t, started.IsActive)

	clk.Advance(10 * time.Minute)

	// Запуск второй задачи останавливает первую
	_, err = svc.Start(ctx, alice, b.ID)
	require.NoError(t, err)

	gotA, err := svc.GetTask(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.False(t, gotA.IsActive)
	assert.Nil(t, gotA.RunningSince)
	assert.Equal(t, 10*time.Minute, gotA.TotalTime)

	clk.Advance(5 * time.Minute)

	stopped, err := svc.Stop(ctx, alice, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, stopped.TotalTime)
	assert.Equal(t, 5*time.Minute, stopped.TodayTime)

	_, err = svc.Stop(ctx, alice, b.ID)
	assert.ErrorIs(t, err, domain.ErrTimerNotRunning)

	stats, err := svc.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, stats.Today)

	t.Run("completion stops the timer", func(t *testing.T) {
		_, err := svc.Start(ctx, alice, a.ID)
		require.NoError(t, err)
		clk.Advance(time.Minute)

		done, err := svc.Toggle(ctx, alice, a.ID)
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.False(t, done.IsActive)
		assert.Equal(t, 11*time.Minute, done.TotalTime)

		_, err = svc.Start(ctx, alice, a.ID)
		assert.ErrorIs(t, err, domain.ErrTaskCompleted)

		undone, err := svc.Toggle(ctx, alice, a.ID)
		require.NoError(t, err)
		assert.False(t, undone.Completed)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := svc.Start(ctx, alice, "missing")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, alice, "missing"), domain.ErrTaskNotFound)
	})
}

func TestTaskService_CommentsAndClear(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTaskService(t, fixedLimit(0))

	task, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "write code"})
	require.NoError(t, err)

	c, err := svc.Comment(ctx, alice, task.ID, " looks good ")
	require.NoError(t, err)
	assert.Equal(t, "looks good", c.Text)
	assert.Equal(t, alice, c.Author)

	_, err = svc.Comment(ctx, alice, task.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyComment)

	got, err := svc.GetTask(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, 1)

	require.NoError(t, svc.Clear(ctx, alice))
	list, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list.Tasks)
}

func TestTaskService_Notifications(t *testing.T) {
	ctx := context.Background()
	svc, clk, _ := newTaskService(t, fixedLimit(0))

	deadline := clk.Now().Add(3 * time.Minute)
	task, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "ship release", Deadline: &deadline})
	require.NoError(t, err)

	queued, err := svc.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	// Предупреждение срабатывает один раз
	queued, err = svc.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queued)

	pending, err := svc.Notifications(ctx, alice)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.NotificationDeadlineSoon, pending[0].Kind)
	assert.Equal(t, task.ID, pending[0].TaskID)

	pending, err = svc.Notifications(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.SetReminder(ctx, alice, task.ID, 1)
	require.NoError(t, err)
	clk.Advance(4 * time.Minute)

	queued, err = svc.CheckUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	pending, err = svc.Notifications(ctx, alice)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	kinds := []domain.NotificationKind{pending[0].Kind, pending[1].Kind}
	assert.ElementsMatch(t, []domain.NotificationKind{domain.NotificationDeadlinePassed, domain.NotificationReminder}, kinds)

	t.Run("ack", func(t *testing.T) {
		_, err := svc.SetReminder(ctx, alice, task.ID, 1)
		require.NoError(t, err)
		clk.Advance(2 * time.Minute)
		_, err = svc.CheckUser(ctx, alice)
		require.NoError(t, err)

		state, err := svc.read(ctx, alice)
		require.NoError(t, err)
		require.Len(t, state.Notifications, 1)

		found, err := svc.AckNotification(ctx, alice, state.Notifications[0].ID)
		require.NoError(t, err)
		assert.True(t, found)

		found, err = svc.AckNotification(ctx, alice, state.Notifications[0].ID)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("invalid reminder", func(t *testing.T) {
		_, err := svc.SetReminder(ctx, alice, task.ID, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidReminder)
	})
}

func TestTaskService_Idle(t *testing.T) {
	ctx := context.Background()
	svc, clk, _ := newTaskService(t, fixedLimit(0))

	task, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "write code"})
	require.NoError(t, err)
	_, err = svc.Start(ctx, alice, task.ID)
	require.NoError(t, err)

	clk.Advance(4 * time.Minute)
	fired, err := svc.CheckIdleAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	clk.Advance(2 * time.Minute)
	fired, err = svc.CheckIdleAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	fired, err = svc.CheckIdleAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	// Таймер продолжает идти
	got, err := svc.GetTask(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	require.NoError(t, svc.Activity(ctx, alice))
	clk.Advance(6 * time.Minute)
	ok, err := svc.CheckIdleUser(ctx, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err := svc.Notifications(ctx, alice)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.NotificationIdle, pending[0].Kind)
}

func TestTaskService_Export(t *testing.T) {
	ctx := context.Background()
	svc, clk, _ := newTaskService(t, fixedLimit(0))

	task, err := svc.AddTask(ctx, alice, CreateTaskInput{Text: "deploy staging"})
	require.NoError(t, err)
	_, err = svc.Start(ctx, alice, task.ID)
	require.NoError(t, err)
	clk.Advance(30 * time.Minute)
	_, err = svc.Stop(ctx, alice, task.ID)
	require.NoError(t, err)

	for _, format := range []export.Format{export.FormatCSV, export.FormatJSON, export.FormatHTML} {
		t.Run(string(format), func(t *testing.T) {
			res, err := svc.Export(ctx, alice, format, export.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, format.ContentType(), res.ContentType)
			assert.Equal(t, format.Filename(clk.Now()), res.Filename)
			assert.Contains(t, string(res.Body), "Staging")
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		_, err := svc.Export(ctx, alice, export.Format("xml"), export.DefaultOptions())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("bad date range", func(t *testing.T) {
		opts := export.DefaultOptions()
		opts.FromDate = "yesterday"
		_, err := svc.Export(ctx, alice, export.FormatCSV, opts)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	analytics, productivity, err := svc.Analytics(ctx, alice)
	require.NoError(t, err)
	assert.NotNil(t, analytics)
	assert.NotNil(t, productivity)
}
