package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	retention time.Duration
	n         int64
	err       error
	calls     int
}

func (f *fakePurger) PurgeDeleted(_ context.Context, retention time.Duration) (int64, error) {
	f.calls++
	f.retention = retention
	return f.n, f.err
}

func TestRunPurge(t *testing.T) {
	d := &fakePurger{n: 3}
	p := &fakePurger{n: 1}
	s := NewScheduler(d, p, 48*time.Hour)

	s.runPurge()

	require.Equal(t, 1, d.calls)
	require.Equal(t, 1, p.calls)
	require.Equal(t, 48*time.Hour, d.retention)
}

func TestRunPurgeFailureDoesNotSkipOthers(t *testing.T) {
	d := &fakePurger{err: errors.New("db down")}
	p := &fakePurger{}
	s := NewScheduler(d, p, 0)

	s.runPurge()

	require.Equal(t, 1, p.calls)
	require.Equal(t, DefaultRetention, p.retention)
}
