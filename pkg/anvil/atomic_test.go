// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAtomicCommitsAllOrNothing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	err := s.Atomic(ctx, "test_ingest", func(tx *Tx) error {
		for i := 0; i < 3; i++ {
			if _, err := tx.InsertExecutionHistory(ExecutionHistory{
				EntityID: "e" + string(rune('0'+i)), EntityType: EntityTest,
				ExecutionID: "local-1", Timestamp: now, Status: StatusPassed, Space: SpaceLocal,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	rows, err := s.GetExecutionHistory(ctx, HistoryFilter{Space: SpaceAll})
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestAtomicRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	boom := errors.New("boom")
	err := s.Atomic(ctx, "test_ingest", func(tx *Tx) error {
		if _, err := tx.InsertExecutionHistory(ExecutionHistory{
			EntityID: "e1", EntityType: EntityTest, ExecutionID: "local-1",
			Timestamp: now, Status: StatusPassed, Space: SpaceLocal,
		}); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)

	rows, err := s.GetExecutionHistory(ctx, HistoryFilter{Space: SpaceAll})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestAtomicRecomputesStatsWithinTx(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	err := s.Atomic(ctx, "test_ingest", func(tx *Tx) error {
		if _, err := tx.InsertExecutionHistory(ExecutionHistory{
			EntityID: "e1", EntityType: EntityTest, ExecutionID: "local-1",
			Timestamp: now, Status: StatusFailed, Space: SpaceLocal,
		}); err != nil {
			return err
		}
		history, err := tx.ExecutionHistoryForEntity("e1")
		if err != nil {
			return err
		}
		require.Len(t, history, 1)
		return tx.UpsertEntityStatistics(EntityStatistics{
			EntityID: "e1", EntityType: EntityTest, TotalRuns: 1, Failed: 1, FailureRate: 1.0, LastRun: now,
		})
	})
	require.NoError(t, err)

	st, err := s.GetEntityStatistics(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, 1.0, st.FailureRate)
}
