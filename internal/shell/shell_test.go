package shell

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuccess(t *testing.T) {
	res, err := Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "echo hello; echo world >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, string(res.Output), "hello")
	assert.Contains(t, string(res.Output), "world")
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRunNonZeroExit(t *testing.T) {
	res, err := Run(context.Background(), Command{
		Binary: "sh",
		Args:   []string{"-c", "echo boom; exit 3"},
	})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 3, res.ExitCode)
	// Captured output rides along on the error for diagnosis.
	assert.Contains(t, err.Error(), "boom")
}

func TestRunTimeoutKillsProcessGroup(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), Command{
		Binary:      "sh",
		Args:        []string{"-c", "sleep 30"},
		Timeout:     100 * time.Millisecond,
		GracePeriod: 200 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrTimeout)
	// The grace period bounds how long the kill can take; nothing close to
	// the child's sleep duration should have elapsed.
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunMissingBinaryName(t *testing.T) {
	_, err := Run(context.Background(), Command{})
	require.Error(t, err)
}

func TestRunCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := Run(ctx, Command{
		Binary:      "sh",
		Args:        []string{"-c", "sleep 30"},
		GracePeriod: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}
