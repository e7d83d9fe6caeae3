package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetransit/network-monitor/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		config.EnvUpstreamHost, config.EnvUpstreamPort, config.EnvUsername, config.EnvPassword,
		config.EnvCACertFile, config.EnvLayoutFile, config.EnvQuietHostname, config.EnvQuietIP,
		config.EnvQuietPort, config.EnvMaxSlowdownPc, config.EnvMinQuietnessPc, config.EnvMaxNPaths,
		config.EnvRunDuration,
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}

func TestFromEnvRequiresCACertFile(t *testing.T) {
	clearEnv(t)
	_, err := config.FromEnv()
	require.Error(t, err)
}

func TestFromEnvAppliesDefaults(t *testing.T) {
	clearEnv(t)
	os.Setenv(config.EnvCACertFile, "/etc/ca.pem")
	defer os.Unsetenv(config.EnvCACertFile)

	c, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, config.DfltUpstreamPort, c.UpstreamPort)
	assert.Equal(t, config.DfltQuietPort, c.QuietPort)
	assert.Equal(t, config.DfltMaxNPaths, c.MaxNPaths)
	assert.InDelta(t, config.DfltMaxSlowdownPc, c.MaxSlowdownPc, 1e-9)
	assert.InDelta(t, config.DfltMinQuietnessPc, c.MinQuietnessPc, 1e-9)
	assert.Zero(t, c.RunDuration)
}

func TestFromEnvOverridesNumericFields(t *testing.T) {
	clearEnv(t)
	os.Setenv(config.EnvCACertFile, "/etc/ca.pem")
	os.Setenv(config.EnvQuietPort, "9000")
	os.Setenv(config.EnvMaxNPaths, "5")
	os.Setenv(config.EnvRunDuration, "30")
	defer clearEnv(t)

	c, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 9000, c.QuietPort)
	assert.Equal(t, 5, c.MaxNPaths)
	assert.EqualValues(t, 30e9, c.RunDuration)
}

func TestFromEnvRejectsUnparsableNumber(t *testing.T) {
	clearEnv(t)
	os.Setenv(config.EnvCACertFile, "/etc/ca.pem")
	os.Setenv(config.EnvMaxNPaths, "not-a-number")
	defer clearEnv(t)

	_, err := config.FromEnv()
	require.Error(t, err)
}
