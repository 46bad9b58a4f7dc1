// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInsertAndGetExecutionHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	id, err := s.InsertExecutionHistory(ctx, ExecutionHistory{
		EntityID:        "pkg/foo::TestBar",
		EntityType:      EntityTest,
		ExecutionID:     "local-20260101-000000",
		Timestamp:       now,
		Status:          StatusPassed,
		DurationSeconds: 0.42,
		Space:           SpaceLocal,
		Metadata:        map[string]string{"suite": "unit"},
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	rows, err := s.GetExecutionHistory(ctx, HistoryFilter{EntityID: "pkg/foo::TestBar"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, StatusPassed, rows[0].Status)
	require.Equal(t, "unit", rows[0].Metadata["suite"])
	require.WithinDuration(t, now, rows[0].Timestamp, time.Second)
}

func TestInsertExecutionHistoryDuplicateRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	h := ExecutionHistory{
		EntityID: "pkg/foo::TestBar", EntityType: EntityTest, ExecutionID: "local-1",
		Timestamp: time.Now(), Status: StatusPassed, Space: SpaceLocal,
	}
	_, err := s.InsertExecutionHistory(ctx, h)
	require.NoError(t, err)

	_, err = s.InsertExecutionHistory(ctx, h)
	require.Error(t, err)
	require.True(t, IsConstraint(err))
}

func TestGetExecutionHistoryFiltersBySpace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.InsertExecutionHistory(ctx, ExecutionHistory{
		EntityID: "e1", EntityType: EntityTest, ExecutionID: "local-1",
		Timestamp: time.Now(), Status: StatusPassed, Space: SpaceLocal,
	})
	require.NoError(t, err)
	_, err = s.InsertExecutionHistory(ctx, ExecutionHistory{
		EntityID: "e1", EntityType: EntityTest, ExecutionID: "ci-1",
		Timestamp: time.Now(), Status: StatusFailed, Space: SpaceCI,
	})
	require.NoError(t, err)

	local, err := s.GetExecutionHistory(ctx, HistoryFilter{EntityID: "e1", Space: SpaceLocal})
	require.NoError(t, err)
	require.Len(t, local, 1)
	require.Equal(t, SpaceLocal, local[0].Space)

	all, err := s.GetExecutionHistory(ctx, HistoryFilter{EntityID: "e1", Space: SpaceAll})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGetExecutionHistoryRespectsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.InsertExecutionHistory(ctx, ExecutionHistory{
			EntityID: "e1", EntityType: EntityTest, ExecutionID: "local-run-" + time.Now().Add(time.Duration(i)*time.Second).Format("150405.000000000"),
			Timestamp: time.Now().Add(time.Duration(i) * time.Second), Status: StatusPassed, Space: SpaceLocal,
		})
		require.NoError(t, err)
	}

	rows, err := s.GetExecutionHistory(ctx, HistoryFilter{EntityID: "e1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
