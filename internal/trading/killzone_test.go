package trading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testZones() []KillZone {
	return []KillZone{
		{Name: "London Open", StartHour: 2, StartMinute: 0, EndHour: 5, EndMinute: 0, Priority: PriorityPrimary},
		{Name: "New York AM", StartHour: 7, StartMinute: 0, EndHour: 10, EndMinute: 0, Priority: PriorityPrimary},
		{Name: "New York PM", StartHour: 13, StartMinute: 30, EndHour: 16, EndMinute: 0, Priority: PrioritySecondary},
		{Name: "Asia", StartHour: 18, StartMinute: 0, EndHour: 0, EndMinute: 0, Priority: PriorityAvoid},
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 12, hour, minute, 0, 0, time.UTC)
}

func TestClassify(t *testing.T) {
	c := NewClassifier(testZones(), time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want string // "" means no zone
	}{
		{"before first zone", at(1, 59), ""},
		{"start is inclusive", at(2, 0), "London Open"},
		{"inside london", at(4, 30), "London Open"},
		{"end is exclusive", at(5, 0), ""},
		{"inside ny am", at(9, 59), "New York AM"},
		{"between zones", at(12, 0), ""},
		{"secondary zone", at(14, 0), "New York PM"},
		{"overnight start", at(18, 0), "Asia"},
		{"overnight late evening", at(23, 30), "Asia"},
		{"overnight last minute", at(23, 59), "Asia"},
		{"overnight past midnight", at(0, 1), ""},
		{"midnight end exclusive", at(0, 0), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.now)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestClassifyWrapIntoMorning(t *testing.T) {
	// A window crossing midnight must also match the morning side.
	zones := []KillZone{
		{Name: "Overnight", StartHour: 20, StartMinute: 0, EndHour: 2, EndMinute: 0, Priority: PriorityAvoid},
	}
	c := NewClassifier(zones, time.UTC)

	require.NotNil(t, c.Classify(at(21, 0)))
	require.NotNil(t, c.Classify(at(1, 59)))
	assert.Nil(t, c.Classify(at(2, 0)))
	assert.Nil(t, c.Classify(at(12, 0)))
}

func TestClassifyFirstMatchWins(t *testing.T) {
	zones := []KillZone{
		{Name: "First", StartHour: 8, StartMinute: 0, EndHour: 10, EndMinute: 0, Priority: PrioritySecondary},
		{Name: "Second", StartHour: 9, StartMinute: 0, EndHour: 11, EndMinute: 0, Priority: PriorityPrimary},
	}
	c := NewClassifier(zones, time.UTC)

	got := c.Classify(at(9, 30))
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Name)
}

func TestClassifyConvertsTimezone(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	c := NewClassifier(testZones(), chicago)

	// 09:00 UTC in March is 04:00 in Chicago (CDT): inside London Open.
	got := c.Classify(time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC))
	require.NotNil(t, got)
	assert.Equal(t, "London Open", got.Name)
}

func TestNextPrimary(t *testing.T) {
	c := NewClassifier(testZones(), time.UTC)

	t.Run("later today", func(t *testing.T) {
		zone, startsAt, ok := c.NextPrimary(at(5, 30))
		require.True(t, ok)
		assert.Equal(t, "New York AM", zone.Name)
		assert.Equal(t, at(7, 0), startsAt)
	})

	t.Run("inside a primary zone the next one is returned", func(t *testing.T) {
		zone, _, ok := c.NextPrimary(at(2, 30))
		require.True(t, ok)
		assert.Equal(t, "New York AM", zone.Name)
	})

	t.Run("start must strictly exceed now", func(t *testing.T) {
		zone, _, ok := c.NextPrimary(at(7, 0))
		require.True(t, ok)
		assert.Equal(t, "London Open", zone.Name)
	})

	t.Run("wraps to tomorrow", func(t *testing.T) {
		zone, startsAt, ok := c.NextPrimary(at(19, 0))
		require.True(t, ok)
		assert.Equal(t, "London Open", zone.Name)
		assert.Equal(t, time.Date(2024, 3, 13, 2, 0, 0, 0, time.UTC), startsAt)
	})

	t.Run("no primary zones", func(t *testing.T) {
		c := NewClassifier([]KillZone{
			{Name: "Asia", StartHour: 18, StartMinute: 0, EndHour: 0, EndMinute: 0, Priority: PriorityAvoid},
		}, time.UTC)
		_, _, ok := c.NextPrimary(at(12, 0))
		assert.False(t, ok)
	})
}

func TestInPrimary(t *testing.T) {
	c := NewClassifier(testZones(), time.UTC)

	assert.True(t, c.InPrimary(at(3, 0)))
	assert.False(t, c.InPrimary(at(14, 0))) // secondary
	assert.False(t, c.InPrimary(at(12, 0))) // none
}
