// Package proxy validates the grid proxy credential that the submission
// depends on. Staging through the wide-area storage endpoints requires a
// proxy with enough remaining lifetime to outlive the workflow's transfers.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vk/toygrid/internal/ctxlog"
	"github.com/vk/toygrid/internal/shell"
)

// DefaultMinValidHours is the minimum remaining proxy lifetime accepted for
// a new submission.
const DefaultMinValidHours = 20

// EnvVar names the environment variable holding the proxy file path.
const EnvVar = "X509_USER_PROXY"

// ErrExpired indicates the proxy exists but does not have enough lifetime left.
var ErrExpired = errors.New("proxy lifetime below minimum")

// Runner abstracts command execution so tests can substitute a fake.
type Runner func(ctx context.Context, cmd shell.Command) (*shell.Result, error)

// Validator checks the X509 proxy credential via an external inspection command.
type Validator struct {
	// MinValidHours is the minimum remaining validity. Defaults to
	// DefaultMinValidHours if zero.
	MinValidHours int
	// Run executes the inspection command. Defaults to shell.Run.
	Run Runner
	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string
}

// Validate ensures $X509_USER_PROXY is set and references a proxy with at
// least MinValidHours of lifetime remaining. It returns the proxy path on
// success so callers can propagate it into site profiles.
func (v *Validator) Validate(ctx context.Context) (string, error) {
	logger := ctxlog.FromContext(ctx)

	getenv := v.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	run := v.Run
	if run == nil {
		run = shell.Run
	}
	minHours := v.MinValidHours
	if minHours == 0 {
		minHours = DefaultMinValidHours
	}

	proxyPath := getenv(EnvVar)
	if proxyPath == "" {
		return "", fmt.Errorf("please provide a valid %s environment variable", EnvVar)
	}

	logger.Debug("Verifying that the proxy has enough lifetime.", "path", proxyPath)
	res, err := run(ctx, shell.Command{
		Binary: "grid-proxy-info",
		Args:   []string{"-timeleft", "-file", proxyPath},
	})
	if err != nil {
		return "", fmt.Errorf("failed to inspect proxy %s: %w", proxyPath, err)
	}

	secondsLeft, err := strconv.Atoi(strings.TrimSpace(string(res.Output)))
	if err != nil {
		return "", fmt.Errorf("unexpected grid-proxy-info output %q: %w", string(res.Output), err)
	}

	validHours := secondsLeft / 3600
	if validHours < minHours {
		return "", fmt.Errorf("user proxy is only valid for %d hours, minimum required is %d hours: %w",
			validHours, minHours, ErrExpired)
	}

	logger.Debug("Proxy validated.", "valid_hours", validHours)
	return proxyPath, nil
}
