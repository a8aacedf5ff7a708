package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullFlagSet(t *testing.T) {
	out := &bytes.Buffer{}
	args := []string{
		"-config", "pipeline.yaml",
		"-input-data-path", "s3://bucket/data",
		"-role-arn", "arn:aws:iam::1:role/x",
		"-region", "eu-west-1",
		"-wait",
		"-poll-interval", "10s",
		"-log-format", "text",
		"-log-level", "debug",
	}

	config, shouldExit, err := Parse(args, out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, "pipeline.yaml", config.ConfigPath)
	assert.Equal(t, "s3://bucket/data", config.InputDataPath)
	assert.Equal(t, "arn:aws:iam::1:role/x", config.RoleARN)
	assert.Equal(t, "eu-west-1", config.Region)
	assert.True(t, config.Wait)
	assert.Equal(t, 10*time.Second, config.PollInterval)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestParse_ConfigPathSources(t *testing.T) {
	t.Run("positional argument", func(t *testing.T) {
		config, shouldExit, err := Parse([]string{"-dry-run", "pipeline.yaml"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, shouldExit)
		assert.Equal(t, "pipeline.yaml", config.ConfigPath)
	})

	t.Run("shorthand flag", func(t *testing.T) {
		config, shouldExit, err := Parse([]string{"-dry-run", "-c", "pipeline.yaml"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, shouldExit)
		assert.Equal(t, "pipeline.yaml", config.ConfigPath)
	})

	t.Run("long flag wins over positional", func(t *testing.T) {
		config, _, err := Parse([]string{"-dry-run", "-config", "a.yaml", "b.yaml"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a.yaml", config.ConfigPath)
	})
}

func TestParse_NoArgsPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}

	config, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, config)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Validation(t *testing.T) {
	t.Run("bad log format", func(t *testing.T) {
		_, _, err := Parse([]string{"-dry-run", "-log-format", "xml", "p.yaml"}, &bytes.Buffer{})
		require.Error(t, err)
		exitErr, ok := err.(*ExitError)
		require.True(t, ok)
		assert.Equal(t, 2, exitErr.Code)
		assert.Contains(t, exitErr.Message, "invalid log-format")
	})

	t.Run("bad log level", func(t *testing.T) {
		_, _, err := Parse([]string{"-dry-run", "-log-level", "loud", "p.yaml"}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log-level")
	})

	t.Run("negative poll interval", func(t *testing.T) {
		_, _, err := Parse([]string{"-dry-run", "-poll-interval", "-5s", "p.yaml"}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid poll-interval")
	})

	t.Run("role required without dry run", func(t *testing.T) {
		_, _, err := Parse([]string{"p.yaml"}, &bytes.Buffer{})
		require.Error(t, err)
		exitErr, ok := err.(*ExitError)
		require.True(t, ok)
		assert.Equal(t, 2, exitErr.Code)
		assert.Contains(t, exitErr.Message, "RoleARN")
	})
}
