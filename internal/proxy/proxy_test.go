package proxy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/toygrid/internal/shell"
)

func fakeRunner(output string, err error) Runner {
	return func(ctx context.Context, cmd shell.Command) (*shell.Result, error) {
		if err != nil {
			return nil, err
		}
		return &shell.Result{Output: []byte(output)}, nil
	}
}

func fakeEnv(path string) func(string) string {
	return func(key string) string {
		if key == EnvVar {
			return path
		}
		return ""
	}
}

func TestValidate(t *testing.T) {
	t.Run("enough lifetime", func(t *testing.T) {
		v := &Validator{
			Run:    fakeRunner("90000\n", nil), // 25h
			Getenv: fakeEnv("/tmp/x509up_u1000"),
		}
		path, err := v.Validate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/tmp/x509up_u1000", path)
	})

	t.Run("expired", func(t *testing.T) {
		v := &Validator{
			Run:    fakeRunner("3600", nil), // 1h
			Getenv: fakeEnv("/tmp/x509up_u1000"),
		}
		_, err := v.Validate(context.Background())
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		v := &Validator{
			MinValidHours: 20,
			Run:           fakeRunner("72000", nil), // exactly 20h
			Getenv:        fakeEnv("/tmp/x509up_u1000"),
		}
		_, err := v.Validate(context.Background())
		require.NoError(t, err)
	})

	t.Run("missing env var", func(t *testing.T) {
		v := &Validator{
			Run:    fakeRunner("90000", nil),
			Getenv: fakeEnv(""),
		}
		_, err := v.Validate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvVar)
	})

	t.Run("garbage output", func(t *testing.T) {
		v := &Validator{
			Run:    fakeRunner("not-a-number", nil),
			Getenv: fakeEnv("/tmp/x509up_u1000"),
		}
		_, err := v.Validate(context.Background())
		require.Error(t, err)
	})
}
