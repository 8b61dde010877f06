package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/orgextract/internal/config"
	"github.com/JakeFAU/orgextract/internal/extractor"
	"github.com/JakeFAU/orgextract/internal/orchestrator"
)

type fakeRunner struct {
	summary orchestrator.Summary
	err     error
	got     []extractor.Target
	closed  bool
}

func (f *fakeRunner) Run(_ context.Context, targets []extractor.Target) (orchestrator.Summary, error) {
	f.got = targets
	return f.summary, f.err
}

func (f *fakeRunner) Close() { f.closed = true }

func useRunner(t *testing.T, r *fakeRunner) {
	t.Helper()
	prev := newRunner
	newRunner = func(context.Context, config.Config, *zap.Logger) (runner, error) {
		return r, nil
	}
	t.Cleanup(func() { newRunner = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestParseTargets(t *testing.T) {
	t.Parallel()
	in := `
# companies to visit
https://www.linkedin.com/company/acme/

  https://www.linkedin.com/company/globex/  
#https://www.linkedin.com/company/skipped/
`
	got, err := parseTargets(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.linkedin.com/company/acme/",
		"https://www.linkedin.com/company/globex/",
	}, got)
}

func TestCollectTargets(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(file, []byte("https://www.linkedin.com/company/initech/\nhttps://www.linkedin.com/company/acme\n"), 0o600))

	got, err := collectTargets(
		[]string{"https://www.linkedin.com/company/acme/"},
		[]string{"https://www.linkedin.com/company/globex/life/"},
		file,
		[]string{"https://www.linkedin.com/company/globex/"},
	)
	require.NoError(t, err)
	assert.Equal(t, []extractor.Target{
		"https://www.linkedin.com/company/acme/",
		"https://www.linkedin.com/company/globex/life/",
		"https://www.linkedin.com/company/initech/",
	}, got)
}

func TestCollectTargetsErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		file string
		want string
	}{
		{name: "empty", want: "no targets"},
		{name: "not a url", args: []string{"acme"}, want: "invalid target"},
		{name: "ftp scheme", args: []string{"ftp://example.com/x"}, want: "invalid target"},
		{name: "missing file", file: filepath.Join(t.TempDir(), "nope.txt"), want: "open targets file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := collectTargets(tt.args, nil, tt.file, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "orgextract dev (none)\n", out)
}

func TestExtractRendersSummary(t *testing.T) {
	r := &fakeRunner{summary: orchestrator.Summary{
		RunID:     "run-1",
		Processed: 2,
		Written:   1,
		Rows: []orchestrator.Row{
			{Target: "https://www.linkedin.com/company/acme/", Name: "Acme Corp", Written: true},
			{Target: "https://www.linkedin.com/company/globex/", Error: "sink write failed"},
		},
	}}
	useRunner(t, r)

	out, err := execute(t, "extract", "https://www.linkedin.com/company/acme/", "--target", "https://www.linkedin.com/company/globex/")
	require.NoError(t, err)

	assert.True(t, r.closed)
	assert.Equal(t, []extractor.Target{
		"https://www.linkedin.com/company/acme/",
		"https://www.linkedin.com/company/globex/",
	}, r.got)
	assert.Contains(t, out, "run run-1")
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "sink write failed")
	assert.Contains(t, out, "2 processed")
}

func TestExtractQuiet(t *testing.T) {
	useRunner(t, &fakeRunner{})
	out, err := execute(t, "extract", "-q", "https://www.linkedin.com/company/acme/")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExtractPropagatesAuthFailure(t *testing.T) {
	useRunner(t, &fakeRunner{err: extractor.ErrAuthenticationFailed})
	_, err := execute(t, "extract", "-q", "https://www.linkedin.com/company/acme/")
	require.Error(t, err)
	assert.ErrorIs(t, err, extractor.ErrAuthenticationFailed)
}

func TestExtractTreatsCancellationAsClean(t *testing.T) {
	useRunner(t, &fakeRunner{err: context.Canceled})
	_, err := execute(t, "extract", "-q", "https://www.linkedin.com/company/acme/")
	require.NoError(t, err)
}

func TestExtractWithoutTargets(t *testing.T) {
	r := &fakeRunner{}
	useRunner(t, r)
	_, err := execute(t, "extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no targets")
	assert.Nil(t, r.got)
}

func TestExtractRunnerInitFailure(t *testing.T) {
	prev := newRunner
	newRunner = func(context.Context, config.Config, *zap.Logger) (runner, error) {
		return nil, errors.New("chrome not found")
	}
	t.Cleanup(func() { newRunner = prev })

	_, err := execute(t, "extract", "https://www.linkedin.com/company/acme/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not found")
}
