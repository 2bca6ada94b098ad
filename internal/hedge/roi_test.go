package hedge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestROITable_ThresholdSelection(t *testing.T) {
	table, err := NewROITable([]ROIRow{
		{0, 0.70},
		{10, 0.20},
		{120, 0},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.70, table.ThresholdFor(0))
	assert.Equal(t, 0.70, table.ThresholdFor(9*time.Minute+59*time.Second))
	assert.Equal(t, 0.20, table.ThresholdFor(10*time.Minute))
	assert.Equal(t, 0.20, table.ThresholdFor(119*time.Minute))
	assert.Equal(t, 0.0, table.ThresholdFor(120*time.Minute))
	assert.Equal(t, 0.0, table.ThresholdFor(48*time.Hour))
}

func TestROITable_ZeroProfitExitOnlyAfterFinalBucket(t *testing.T) {
	table, err := ParseROITable("0:0.70,10:0.20,120:0")
	require.NoError(t, err)

	// flat position: held at 119 minutes, force-exited at 121
	assert.False(t, table.ShouldExit(119*time.Minute, 0))
	assert.True(t, table.ShouldExit(121*time.Minute, 0))
	assert.True(t, table.ShouldExit(120*time.Minute, 0))
}

func TestROITable_ProfitBoundaries(t *testing.T) {
	table := DefaultROITable()

	assert.True(t, table.ShouldExit(0, 0.70))
	assert.False(t, table.ShouldExit(0, 0.6999))
	assert.True(t, table.ShouldExit(30*time.Minute, 0.07))
	assert.False(t, table.ShouldExit(30*time.Minute, 0.069))
	assert.True(t, table.ShouldExit(2*time.Hour, -0.50), "final zero bucket exits even at a loss")
}

func TestROITable_Validation(t *testing.T) {
	_, err := NewROITable(nil)
	assert.Error(t, err)

	_, err = NewROITable([]ROIRow{{5, 0.10}})
	assert.Error(t, err, "table must start at 0 minutes")

	_, err = NewROITable([]ROIRow{{0, 0.10}, {10, 0.20}})
	assert.Error(t, err, "thresholds must be non-increasing")

	_, err = NewROITable([]ROIRow{{0, 0.10}, {10, 0.05}, {10, 0.02}})
	assert.Error(t, err, "duplicate buckets rejected")

	_, err = NewROITable([]ROIRow{{0, 0.10}, {10, -0.05}})
	assert.Error(t, err, "negative thresholds rejected")
}

func TestParseROITable(t *testing.T) {
	table, err := ParseROITable(" 0:0.7, 60:0.03 ,120:0")
	require.NoError(t, err)
	assert.Equal(t, []ROIRow{{0, 0.7}, {60, 0.03}, {120, 0}}, table.Rows())
	assert.Equal(t, "0:0.7,60:0.03,120:0", table.String())

	_, err = ParseROITable("")
	assert.Error(t, err)
	_, err = ParseROITable("0=0.7")
	assert.Error(t, err)
	_, err = ParseROITable("0:abc")
	assert.Error(t, err)
}
