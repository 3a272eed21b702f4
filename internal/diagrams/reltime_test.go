package diagrams

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRelativeLabel(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{59 * time.Minute, "59 minutes ago"},
		{time.Hour, "1 hour ago"},
		{5*time.Hour + 30*time.Minute, "5 hours ago"},
		{23 * time.Hour, "23 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{6*24*time.Hour + 23*time.Hour, "6 days ago"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RelativeLabel(now.Add(-tt.ago), now), "ago=%s", tt.ago)
	}

	old := time.Date(2026, time.January, 2, 9, 30, 0, 0, time.UTC)
	require.Equal(t, "Jan 2, 2026", RelativeLabel(old, now))
}
