package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type offlineDriver struct{ closed bool }

func (d *offlineDriver) NewSession(context.Context, browser.Profile) (browser.Session, error) {
	return nil, errors.New("no browser here")
}
func (d *offlineDriver) Name() string { return "offline" }
func (d *offlineDriver) Close() error { d.closed = true; return nil }

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func useOfflineDriver(t *testing.T) *offlineDriver {
	t.Helper()
	driver := &offlineDriver{}
	orig := newDriver
	newDriver = func(string, *logrus.Logger) (browser.Driver, error) {
		return driver, nil
	}
	t.Cleanup(func() { newDriver = orig })
	return driver
}

func TestRootCommandWiring(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "version")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCmd(t, "version")

	require.NoError(t, err)
	assert.Contains(t, stdout, "dian version")
	assert.Contains(t, stdout, "commit:")
}

func TestSearchRequiresOneArgument(t *testing.T) {
	_, _, err := runCmd(t, "search")
	assert.Error(t, err)

	_, _, err = runCmd(t, "search", "a", "b")
	assert.Error(t, err)
}

func TestSearchPrintsOutcomeAndFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	driver := useOfflineDriver(t)

	stdout, _, err := runCmd(t, "search", "--timeout", "5s", "abc")

	assert.ErrorIs(t, err, errSearchFailed)
	assert.True(t, driver.closed)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, false, out["ok"])
	assert.Contains(t, out["error"], "navigation failed")
	assert.Equal(t, []any{}, out["events"])
}

func TestSearchRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	useOfflineDriver(t)

	_, _, err := runCmd(t, "search", "--driver", "netscape", "abc")

	require.Error(t, err)
	assert.NotErrorIs(t, err, errSearchFailed)
	assert.Contains(t, err.Error(), "configuration error")
}

func TestBuildConfigAppliesFlags(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cmd := NewSearchCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--visible", "--driver", "playwright", "--timeout", "45s"}))

	cfg, err := buildConfig(cmd)

	require.NoError(t, err)
	assert.Equal(t, "visible", cfg.DIAN.Mode)
	assert.Equal(t, "playwright", cfg.Browser.Driver)
	searchCfg := cfg.SearchConfig()
	assert.False(t, searchCfg.Profile.Headless)
	assert.Equal(t, "45s", searchCfg.Timeouts.Overall.String())
}
