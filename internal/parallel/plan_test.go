// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package parallel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanConfiguration_NoSpawn(t *testing.T) {
	cfg, err := PlanConfiguration(false, 7, nil, 3, 1)
	require.NoError(t, err)
	assert.False(t, cfg.ShouldSpawnChildren)
	assert.Equal(t, 1, cfg.NumberOfProcesses)
	assert.Equal(t, 7, cfg.SegmentSize)
	assert.Equal(t, 1, cfg.NumberOfSegments)
}

func TestPlanConfiguration_NoSpawn_ZeroItems(t *testing.T) {
	cfg, err := PlanConfiguration(false, 0, nil, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.SegmentSize)
}

func TestPlanConfiguration_ClampsProcessesToSegments(t *testing.T) {
	n := 8
	cfg, err := PlanConfiguration(true, 10, &n, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.NumberOfSegments) // ceil(10/4)
	assert.Equal(t, 3, cfg.NumberOfProcesses) // clamped down from 8
}

func TestPlanConfiguration_RequestedProcessesHonoredWithinBounds(t *testing.T) {
	n := 2
	cfg, err := PlanConfiguration(true, 100, &n, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.NumberOfSegments)
	assert.Equal(t, 2, cfg.NumberOfProcesses)
}

func TestPlanConfiguration_InvalidSizes(t *testing.T) {
	_, err := PlanConfiguration(true, 10, nil, 0, 1)
	require.ErrorIs(t, err, ErrInvalidSegmentSize)

	_, err = PlanConfiguration(true, 10, nil, 1, 0)
	require.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 0, ceilDiv(0, 5))
	assert.Equal(t, 1, ceilDiv(1, 5))
	assert.Equal(t, 2, ceilDiv(6, 5))
	assert.Equal(t, 0, ceilDiv(6, 0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, clamp(-5, 1, 10))
	assert.Equal(t, 10, clamp(50, 1, 10))
	assert.Equal(t, 5, clamp(5, 1, 10))
}
