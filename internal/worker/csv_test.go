package worker

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskhub/internal/entities"
)

func TestRenderTasksCSV(t *testing.T) {
	due := time.Date(2025, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	done := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	data, err := RenderTasksCSV([]entities.Task{
		{
			ID:        "t1",
			Title:     "write report, part one",
			Priority:  entities.PriorityHigh,
			Status:    entities.TaskOpen,
			DueAt:     &due,
			CreatedAt: time.Date(2025, 2, 28, 8, 0, 0, 0, time.UTC),
		},
		{
			ID:          "t2",
			Title:       "ship it",
			Priority:    entities.PriorityLow,
			Status:      entities.TaskDone,
			CompletedAt: &done,
			CreatedAt:   time.Date(2025, 2, 27, 8, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, []string{"id", "title", "priority", "status", "due_at", "completed_at", "created_at"}, records[0])
	require.Equal(t, []string{"t1", "write report, part one", "HIGH", "OPEN", "2025-03-01T08:30:00Z", "", "2025-02-28T08:00:00Z"}, records[1])
	require.Equal(t, []string{"t2", "ship it", "LOW", "DONE", "", "2025-03-02T10:00:00Z", "2025-02-27T08:00:00Z"}, records[2])
}

func TestRenderTasksCSV_Empty(t *testing.T) {
	data, err := RenderTasksCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, csvHeader, records[0])
}
