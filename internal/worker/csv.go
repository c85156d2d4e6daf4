package worker

import (
	"bytes"
	"encoding/csv"
	"time"

	"taskhub/internal/entities"
)

var csvHeader = []string{"id", "title", "priority", "status", "due_at", "completed_at", "created_at"}

// RenderTasksCSV encodes tasks as a CSV document with a fixed header row.
// Timestamps are RFC 3339 UTC, absent ones empty.
func RenderTasksCSV(tasks []entities.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		rec := []string{
			t.ID,
			t.Title,
			string(t.Priority),
			string(t.Status),
			fmtTime(t.DueAt),
			fmtTime(t.CompletedAt),
			t.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
