//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"todo-notifier/internal/pkg/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var helsinki = time.FixedZone("EET", 2*60*60)

func TestParse(t *testing.T) {
	d, err := schedule.Parse([]string{"12:00", " 00:00", "12:00", "06:30"}, helsinki)
	require.NoError(t, err)

	assert.Equal(t, []schedule.TimeOfDay{{Hour: 0, Minute: 0}, {Hour: 6, Minute: 30}, {Hour: 12, Minute: 0}}, d.Times())
	assert.Equal(t, helsinki, d.Location())

	_, err = schedule.Parse(nil, helsinki)
	assert.Error(t, err)

	_, err = schedule.Parse([]string{"25:00"}, helsinki)
	assert.Error(t, err)

	_, err = schedule.Parse([]string{"noon"}, helsinki)
	assert.Error(t, err)
}

func TestDaily_NextAndLatest(t *testing.T) {
	d, err := schedule.Parse([]string{"00:00", "12:00"}, helsinki)
	require.NoError(t, err)

	tests := []struct {
		name       string
		now        time.Time
		wantNext   time.Time
		wantLatest time.Time
		wantSlot   string
	}{
		{
			name:       "morning",
			now:        time.Date(2025, 1, 14, 9, 30, 0, 0, helsinki),
			wantNext:   time.Date(2025, 1, 14, 12, 0, 0, 0, helsinki),
			wantLatest: time.Date(2025, 1, 14, 0, 0, 0, 0, helsinki),
			wantSlot:   "2025-01-14T00:00",
		},
		{
			name:       "exactly at a fire time",
			now:        time.Date(2025, 1, 14, 12, 0, 0, 0, helsinki),
			wantNext:   time.Date(2025, 1, 15, 0, 0, 0, 0, helsinki),
			wantLatest: time.Date(2025, 1, 14, 12, 0, 0, 0, helsinki),
			wantSlot:   "2025-01-14T12:00",
		},
		{
			name:       "late evening rolls over to tomorrow",
			now:        time.Date(2025, 1, 14, 23, 59, 0, 0, helsinki),
			wantNext:   time.Date(2025, 1, 15, 0, 0, 0, 0, helsinki),
			wantLatest: time.Date(2025, 1, 14, 12, 0, 0, 0, helsinki),
			wantSlot:   "2025-01-14T12:00",
		},
		{
			name:       "utc caller is converted",
			now:        time.Date(2025, 1, 14, 22, 30, 0, 0, time.UTC),
			wantNext:   time.Date(2025, 1, 15, 12, 0, 0, 0, helsinki),
			wantLatest: time.Date(2025, 1, 15, 0, 0, 0, 0, helsinki),
			wantSlot:   "2025-01-15T00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.wantNext.Equal(d.Next(tt.now)), "next: got %s", d.Next(tt.now))
			assert.True(t, tt.wantLatest.Equal(d.Latest(tt.now)), "latest: got %s", d.Latest(tt.now))
			assert.Equal(t, tt.wantSlot, d.Slot(tt.now))
		})
	}
}

func TestDaily_SingleTime(t *testing.T) {
	d, err := schedule.Parse([]string{"07:00"}, helsinki)
	require.NoError(t, err)

	now := time.Date(2025, 1, 14, 6, 0, 0, 0, helsinki)
	assert.True(t, time.Date(2025, 1, 14, 7, 0, 0, 0, helsinki).Equal(d.Next(now)))
	assert.True(t, time.Date(2025, 1, 13, 7, 0, 0, 0, helsinki).Equal(d.Latest(now)))
}
