/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testServerConfig struct {
	Address string
}

func (c *testServerConfig) KeyPrefix() string {
	return "server"
}

func (c *testServerConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("address", ":80")
}

func (c *testServerConfig) Set(dp DataProvider) error {
	var err error
	c.Address, err = dp.GetString("address")
	return err
}

type testLimitsConfig struct {
	Limits map[string]int
}

func (c *testLimitsConfig) SetProviderDefaults(_ DataProvider) {}

func (c *testLimitsConfig) Set(dp DataProvider) error {
	var err error
	c.Limits, err = dp.GetStringMapInt("admission.limits")
	return err
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("defaults are used", func(t *testing.T) {
		serverCfg := &testServerConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, serverCfg)
		require.NoError(t, err)
		require.Equal(t, ":80", serverCfg.Address)
	})

	t.Run("several configs with and without prefix", func(t *testing.T) {
		serverCfg := &testServerConfig{}
		limitsCfg := &testLimitsConfig{}
		data := `{"server":{"address":":777"},"admission":{"limits":{"pdf_to_text":1}}}`
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(data), DataTypeJSON, serverCfg, limitsCfg)
		require.NoError(t, err)
		require.Equal(t, ":777", serverCfg.Address)
		require.Equal(t, map[string]int{"pdf_to_text": 1}, limitsCfg.Limits)
	})

	t.Run("invalid data", func(t *testing.T) {
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{`), DataTypeJSON, &testServerConfig{})
		require.Error(t, err)
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("server:\n  address: \":9090\"\n"), 0o600))
	serverCfg := &testServerConfig{}
	require.NoError(t, NewDefaultLoader("").LoadFromFile(yamlPath, serverCfg))
	require.Equal(t, ":9090", serverCfg.Address)

	serverCfg = &testServerConfig{}
	require.NoError(t, NewDefaultLoader("").LoadFromFile("", serverCfg))
	require.Equal(t, ":80", serverCfg.Address)

	err := NewDefaultLoader("").LoadFromFile(filepath.Join(dir, "config.toml"), serverCfg)
	require.EqualError(t, err, `unsupported config file extension ".toml"`)
}

func TestDataTypeFromPath(t *testing.T) {
	dt, err := DataTypeFromPath("/etc/pdfgate/config.YAML")
	require.NoError(t, err)
	require.Equal(t, DataTypeYAML, dt)

	dt, err = DataTypeFromPath("config.json")
	require.NoError(t, err)
	require.Equal(t, DataTypeJSON, dt)
}
