// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/pagelinks/internal/testutil"
)

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		wantErr  bool
	}{
		{"0 3 * * *", false},
		{"*/15 * * * *", false},
		{"@daily", false},
		{"", true},
		{"   ", true},
		{"not a schedule", true},
		{"0 3 * *", true},
	}
	for _, tt := range tests {
		err := ValidateSchedule(tt.schedule)
		if tt.wantErr {
			assert.Error(t, err, tt.schedule)
		} else {
			assert.NoError(t, err, tt.schedule)
		}
	}
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(testutil.TestLoggerSilent())

	require.NoError(t, s.AddJob("b-job", "0 3 * * *", func() {}))
	require.NoError(t, s.AddJob("a-job", "@hourly", func() {}))
	assert.Error(t, s.AddJob("a-job", "@hourly", func() {}), "duplicate name")
	assert.Error(t, s.AddJob("bad", "nope", func() {}))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a-job", jobs[0].Name)
	assert.Equal(t, "0 3 * * *", jobs[1].Schedule)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(testutil.TestLoggerSilent())

	var runs atomic.Int32
	require.NoError(t, s.AddJob("tick", "@every 1s", func() { runs.Add(1) }))

	s.Start()
	s.Start()
	assert.False(t, s.Jobs()[0].NextRun.IsZero())

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
	s.Stop()
}
