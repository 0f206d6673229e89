package crawl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCLIDate(t *testing.T) {
	d, err := ParseCLIDate("2021_9_1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC), d)
}

func TestParseCLIDateRejectsMalformed(t *testing.T) {
	_, err := ParseCLIDate("2021-09-01")
	assert.Error(t, err)
}

func TestInDateRangeAcrossTimezone(t *testing.T) {
	// 2024-06-01 23:30 UTC is 2024-06-02 07:30 in Asia/Shanghai (+8).
	ts := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)

	inUTCRange, err := InDateRange(ts, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "UTC")
	require.NoError(t, err)
	assert.True(t, inUTCRange)

	inShanghaiRange, err := InDateRange(ts, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "Asia/Shanghai")
	require.NoError(t, err)
	assert.False(t, inShanghaiRange)
}
