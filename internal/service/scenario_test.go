package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
	"github.com/BuzzLyutic/serverless-todo/internal/model"
	"github.com/BuzzLyutic/serverless-todo/internal/repo"
)

// stepClock advances one minute on every read.
type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newMemoryService(t *testing.T, ids ...string) (*TaskService, *repo.MemoryStore) {
	t.Helper()

	store := repo.NewMemoryStore()
	clock := &stepClock{t: time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)}
	next := 0
	svc := NewTaskService(store, zap.NewNop(),
		WithClock(clock.now),
		WithIDGenerator(func() string {
			id := ids[next]
			next++
			return id
		}),
	)
	return svc, store
}

func taskIDs(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.TaskID)
	}
	return out
}

func TestScenario_ThreeTasks(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryService(t, "a", "b", "c")

	for _, req := range []model.CreateTask{
		{Title: "A", DueDate: "2025-01-20", Priority: "HIGH"},
		{Title: "B", DueDate: "2025-01-18", Priority: "LOW"},
		{Title: "C", DueDate: "2025-01-25", Priority: "MEDIUM"},
	} {
		_, err := svc.Create(ctx, "u1", req)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, "u1", model.ListParams{SortBy: model.SortByDueDate})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, taskIDs(page.Items))
	assert.Empty(t, page.NextCursor)

	page, err = svc.List(ctx, "u1", model.ListParams{SortBy: model.SortByCreatedAt})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, taskIDs(page.Items))

	low := model.PriorityLow
	updated, err := svc.Update(ctx, "u1", "a", model.ChangeSet{Priority: &low})
	require.NoError(t, err)
	assert.Equal(t, model.PriorityLow, updated.Priority)
	assert.Equal(t, "A", updated.Title)
	assert.Greater(t, updated.UpdatedAt, updated.CreatedAt)

	res, err := store.Query(ctx, repo.Query{Index: repo.DueDateIndex, PartitionKey: "USER#u1", Forward: true})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "a", res.Items[1][model.AttrTaskID])
	assert.Equal(t, "DUE#2025-01-20#LOW", res.Items[1][keys.AttrGSI1SK])

	page, err = svc.List(ctx, "u1", model.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, taskIDs(page.Items))

	require.NoError(t, svc.Delete(ctx, "u1", "b"))

	page, err = svc.List(ctx, "u1", model.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, taskIDs(page.Items))
	assert.Equal(t, 2, page.Count)

	assert.ErrorIs(t, svc.Delete(ctx, "u1", "b"), ErrNotFound)
}

func TestScenario_OwnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t, "mine", "theirs")

	_, err := svc.Create(ctx, "u1", model.CreateTask{Title: "mine", DueDate: "2025-01-20", Priority: "HIGH"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", model.CreateTask{Title: "theirs", DueDate: "2025-01-20", Priority: "HIGH"})
	require.NoError(t, err)

	page, err := svc.List(ctx, "u1", model.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, taskIDs(page.Items))

	title := "hijack"
	_, err = svc.Update(ctx, "u1", "theirs", model.ChangeSet{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "u1", "theirs"), ErrNotFound)
}

func TestScenario_Pagination(t *testing.T) {
	ctx := context.Background()
	ids := []string{"t0", "t1", "t2", "t3", "t4"}
	svc, _ := newMemoryService(t, ids...)

	for i := range ids {
		_, err := svc.Create(ctx, "u1", model.CreateTask{
			Title:    fmt.Sprintf("task %d", i),
			DueDate:  fmt.Sprintf("2025-02-%02d", i+1),
			Priority: "MEDIUM",
		})
		require.NoError(t, err)
	}

	for _, sortBy := range []model.SortBy{model.SortByDueDate, model.SortByCreatedAt} {
		t.Run(string(sortBy), func(t *testing.T) {
			var seen []string
			cursor := ""
			pages := 0
			for {
				page, err := svc.List(ctx, "u1", model.ListParams{SortBy: sortBy, Limit: 2, Cursor: cursor})
				require.NoError(t, err)
				assert.LessOrEqual(t, page.Count, 2)
				seen = append(seen, taskIDs(page.Items)...)
				pages++

				if page.NextCursor == "" {
					break
				}

				again, err := svc.List(ctx, "u1", model.ListParams{SortBy: sortBy, Limit: 2, Cursor: cursor})
				require.NoError(t, err)
				assert.Equal(t, page, again)

				cursor = page.NextCursor
				require.Less(t, pages, 10)
			}

			assert.Equal(t, 3, pages)
			assert.ElementsMatch(t, ids, seen)
		})
	}
}

func TestScenario_StatusFilterMayShortenPages(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t, "t0", "t1", "t2", "t3")

	for i := 0; i < 4; i++ {
		_, err := svc.Create(ctx, "u1", model.CreateTask{
			Title:    fmt.Sprintf("task %d", i),
			DueDate:  fmt.Sprintf("2025-03-%02d", i+1),
			Priority: "LOW",
		})
		require.NoError(t, err)
	}
	completed := model.StatusCompleted
	_, err := svc.Update(ctx, "u1", "t1", model.ChangeSet{Status: &completed})
	require.NoError(t, err)

	pending := model.StatusPending
	page, err := svc.List(ctx, "u1", model.ListParams{Limit: 2, Filter: model.TaskFilter{Status: &pending}})
	require.NoError(t, err)
	assert.Equal(t, []string{"t0"}, taskIDs(page.Items))
	assert.NotEmpty(t, page.NextCursor)

	page, err = svc.List(ctx, "u1", model.ListParams{Limit: 2, Cursor: page.NextCursor, Filter: model.TaskFilter{Status: &pending}})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t3"}, taskIDs(page.Items))
	assert.Empty(t, page.NextCursor)
}

func TestScenario_CursorFromAnotherOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t, "a", "b")

	for _, id := range []string{"a", "b"} {
		_, err := svc.Create(ctx, "u1", model.CreateTask{Title: id, DueDate: "2025-01-20", Priority: "HIGH"})
		require.NoError(t, err)
	}
	page, err := svc.List(ctx, "u1", model.ListParams{Limit: 1})
	require.NoError(t, err)
	require.NotEmpty(t, page.NextCursor)

	_, err = svc.List(ctx, "u2", model.ListParams{Limit: 1, Cursor: page.NextCursor})
	assert.ErrorIs(t, err, ErrInvalidCursor)
}
