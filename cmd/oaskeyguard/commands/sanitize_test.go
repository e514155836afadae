package commands

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenvlab/oaskeyguard/internal/config"
	"github.com/moenvlab/oaskeyguard/internal/testutil"
	"github.com/moenvlab/oaskeyguard/oaserrors"
	"github.com/moenvlab/oaskeyguard/sanitizer"
)

func TestSetupSanitizeFlags(t *testing.T) {
	fs, flags := SetupSanitizeFlags()

	t.Run("default values", func(t *testing.T) {
		assert.Equal(t, "", flags.Output)
		assert.False(t, flags.Quiet)
		assert.False(t, flags.DryRun)
		assert.False(t, flags.EnsureScheme)
		assert.Equal(t, "", flags.Fixes)
		assert.Equal(t, sanitizer.DefaultSchemeName, flags.Scheme)
		assert.Equal(t, sanitizer.DefaultAPIKeyName, flags.APIKeyName)
		assert.Equal(t, sanitizer.DefaultTargetMethod, flags.Method)
	})

	t.Run("parse flags", func(t *testing.T) {
		args := []string{"-o", "clean.yaml", "-q", "--dry-run", "--ensure-scheme",
			"--fixes", "injected-security", "--scheme", "KeyAuth", "--quote-all", "input.yaml"}
		require.NoError(t, fs.Parse(args))

		assert.Equal(t, "clean.yaml", flags.Output)
		assert.True(t, flags.Quiet)
		assert.True(t, flags.DryRun)
		assert.True(t, flags.EnsureScheme)
		assert.Equal(t, "injected-security", flags.Fixes)
		assert.Equal(t, "KeyAuth", flags.Scheme)
		assert.True(t, flags.QuoteAll)
		assert.Equal(t, "input.yaml", fs.Arg(0))
	})

	t.Run("long flags", func(t *testing.T) {
		fs2, flags2 := SetupSanitizeFlags()
		require.NoError(t, fs2.Parse([]string{"--output", "out.yaml", "--quiet", "in.yaml"}))

		assert.Equal(t, "out.yaml", flags2.Output)
		assert.True(t, flags2.Quiet)
	})
}

func TestHandleSanitize_Help(t *testing.T) {
	assert.NoError(t, HandleSanitize([]string{"--help"}))
}

func TestHandleSanitize_TooManyArgs(t *testing.T) {
	assert.Error(t, HandleSanitize([]string{"a.yaml", "b.yaml"}))
}

func TestHandleSanitize_MissingFile(t *testing.T) {
	err := HandleSanitize([]string{"-q", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestHandleSanitize_InPlace(t *testing.T) {
	t.Setenv(config.EnvFullLog, "false")
	path := testutil.WriteTempFile(t, "moenv.yaml", testutil.MOENVSpec)

	require.NoError(t, HandleSanitize([]string{"-q", path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "SECRET123")
	assert.NotContains(t, string(data), "9be7b239")

	doc := testutil.DecodeYAML(t, data)
	assert.NotNil(t, testutil.Lookup(doc, "paths", "/aqx_p_10", "get", "responses", "200"))
	assert.Equal(t, []any{}, testutil.Lookup(doc, "paths", "/aqf_p_01", "get", "security", 0, "ApiKeyAuth"))

	// A second run finds nothing to do and leaves the bytes alone.
	require.NoError(t, HandleSanitize([]string{"-q", path}))
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestHandleSanitize_DefaultSpecFromEnv(t *testing.T) {
	t.Setenv(config.EnvFullLog, "false")
	path := testutil.WriteTempFile(t, "moenv.yaml", testutil.MOENVSpec)
	t.Setenv(config.EnvSpec, path)

	require.NoError(t, HandleSanitize([]string{"-q"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "SECRET123")
}

func TestHandleSanitize_Output(t *testing.T) {
	t.Setenv(config.EnvFullLog, "false")
	path := testutil.WriteTempFile(t, "moenv.yaml", testutil.MOENVSpec)
	out := filepath.Join(t.TempDir(), "clean.yaml")

	require.NoError(t, HandleSanitize([]string{"-q", "-o", out, path}))

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.MOENVSpec, string(original), "input is untouched when -o is given")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "SECRET123")
}

func TestHandleSanitize_DryRun(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "events.jsonl")
	t.Setenv(config.EnvFullLog, "true")
	t.Setenv(config.EnvLogFile, logFile)
	path := testutil.WriteTempFile(t, "moenv.yaml", testutil.MOENVSpec)

	require.NoError(t, HandleSanitize([]string{"-q", "--dry-run", path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.MOENVSpec, string(data))

	_, err = os.Stat(logFile)
	assert.True(t, os.IsNotExist(err), "dry run does not touch the fix log")
}

func TestHandleSanitize_FullLog(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "events.jsonl")
	t.Setenv(config.EnvFullLog, "true")
	t.Setenv(config.EnvLogFile, logFile)
	path := testutil.WriteTempFile(t, "moenv.yaml", testutil.MOENVSpec)

	require.NoError(t, HandleSanitize([]string{"-q", path}))

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 7, lines)
	assert.NotContains(t, string(data), "SECRET123")
}

func TestHandleSanitize_FailedWriteLeavesNoFixLog(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "events.jsonl")
	t.Setenv(config.EnvFullLog, "true")
	t.Setenv(config.EnvLogFile, logFile)
	path := testutil.WriteTempFile(t, "moenv.yaml", testutil.MOENVSpec)

	err := HandleSanitize([]string{"-q", "-o", filepath.Join(t.TempDir(), "missing", "clean.yaml"), path})
	require.Error(t, err)

	_, err = os.Stat(logFile)
	assert.True(t, os.IsNotExist(err), "fixes that were never written are not logged")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.MOENVSpec, string(data))
}

func TestHandleSanitize_Errors(t *testing.T) {
	t.Setenv(config.EnvFullLog, "false")
	path := testutil.WriteTempFile(t, "moenv.yaml", testutil.MOENVSpec)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown fix type", []string{"-q", "--fixes", "bogus", path}},
		{"uppercase method", []string{"-q", "--method", "GET", path}},
		{"empty scheme", []string{"-q", "--scheme", "", path}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleSanitize(tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, oaserrors.ErrConfig)
		})
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.MOENVSpec, string(data), "failed runs leave the file alone")
}

func TestHandleSanitize_ParseError(t *testing.T) {
	t.Setenv(config.EnvFullLog, "false")
	path := testutil.WriteTempFile(t, "bad.yaml", "openapi: [unclosed\n")

	err := HandleSanitize([]string{"-q", path})
	require.Error(t, err)
	assert.ErrorIs(t, err, oaserrors.ErrParse)
}
