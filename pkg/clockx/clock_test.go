package clockx_test

import (
	"testing"
	"time"

	"github.com/schmeconomics/schmeconomics/pkg/clockx"
	"github.com/stretchr/testify/require"
)

func TestFake(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := clockx.NewFake(start)
	require.Equal(t, start, c.Now())

	got := c.Advance(150 * time.Millisecond)
	require.Equal(t, start.Add(150*time.Millisecond), got)
	require.Equal(t, got, c.Now())

	c.Set(start)
	require.Equal(t, start, c.Now())
}

func TestSystemIsUTC(t *testing.T) {
	t.Parallel()

	require.Equal(t, time.UTC, clockx.System{}.Now().Location())
}

func TestOrSystem(t *testing.T) {
	t.Parallel()

	require.IsType(t, clockx.System{}, clockx.OrSystem(nil))

	f := clockx.NewFake(time.Unix(0, 0))
	require.Same(t, f, clockx.OrSystem(f))
}
