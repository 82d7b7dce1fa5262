package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	rm := NewRetryManager(3, time.Second)

	tests := []struct {
		name     string
		attempts int
		maxRetry int
		err      error
		want     bool
	}{
		{
			name:     "transient error retries",
			attempts: 1,
			maxRetry: 3,
			err:      errors.New("connection refused"),
			want:     true,
		},
		{
			name:     "exhausted attempts",
			attempts: 3,
			maxRetry: 3,
			err:      errors.New("connection refused"),
			want:     false,
		},
		{
			name:     "missing data is permanent",
			attempts: 1,
			maxRetry: 3,
			err:      errors.New("missing client_email in task data"),
			want:     false,
		},
		{
			name:     "unknown task type is permanent",
			attempts: 1,
			maxRetry: 3,
			err:      errors.New("unknown task type: mystery"),
			want:     false,
		},
		{
			name:     "unknown notification type is permanent",
			attempts: 1,
			maxRetry: 3,
			err:      errors.New("unknown notification type: mystery"),
			want:     false,
		},
		{
			name:     "not found is permanent",
			attempts: 1,
			maxRetry: 3,
			err:      errors.New("booking not found"),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{ID: "t-1", Type: TaskTypeSendNotification, Attempts: tt.attempts, MaxRetries: tt.maxRetry}
			got, delay := rm.ShouldRetry(task, tt.err)
			assert.Equal(t, tt.want, got)
			if got {
				assert.Greater(t, delay, time.Duration(0))
			}
		})
	}
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	rm := NewRetryManager(10, time.Second)

	// Jitter is ±25%, so bound-check instead of comparing exact values
	for attempt := 1; attempt <= 8; attempt++ {
		delay := rm.calculateBackoff(attempt)
		assert.Greater(t, delay, time.Duration(0), "attempt %d", attempt)
		assert.LessOrEqual(t, delay, 16*time.Second, "attempt %d stays under the cap", attempt)
	}
}

func TestTaskValidate(t *testing.T) {
	task := &Task{ID: "t-1", Type: TaskTypeSendNotification}
	assert.NoError(t, task.Validate())
	assert.NotNil(t, task.Data)

	assert.Error(t, (&Task{Type: TaskTypeSendNotification}).Validate())
	assert.Error(t, (&Task{ID: "t-2"}).Validate())
}

func TestTaskDataAccessors(t *testing.T) {
	task := &Task{
		ID:   "t-1",
		Type: TaskTypeSendNotification,
		Data: map[string]interface{}{
			"client_email": "ana@example.com",
			"amount_paid":  float64(700), // JSON numbers arrive as float64
			"count":        3,
			"when":         "2026-08-01T10:00:00Z",
		},
	}

	assert.Equal(t, "ana@example.com", task.GetString("client_email"))
	assert.Equal(t, "", task.GetString("nope"))
	assert.Equal(t, 700.0, task.GetFloat("amount_paid"))
	assert.Equal(t, 3.0, task.GetFloat("count"))
	assert.Equal(t, 0.0, task.GetFloat("client_email"))
	assert.Equal(t, 2026, task.GetTime("when").Year())
	assert.True(t, task.GetTime("nope").IsZero())
}
