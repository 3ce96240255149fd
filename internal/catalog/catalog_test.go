package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	data := c.Data()

	require.Len(t, data.DeviceTypes, 11)
	require.Len(t, data.Protocols, 4)
	assert.Equal(t, "switch", data.DeviceTypes[0].Value)
	assert.Equal(t, "Switch / Light", data.DeviceTypes[0].Label)

	e, ok := c.DeviceType("Window-Door_Sensor")
	require.True(t, ok)
	assert.Equal(t, "Window/Door Sensor", e.Label)

	p, ok := c.Protocol("zwave")
	require.True(t, ok)
	assert.Equal(t, "Z-Wave", p.Label)

	_, ok = c.Protocol("lora")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid with default labels",
			yaml: `
device_types:
  - value: Thermostat
protocols:
  - value: thread
    label: Thread
`,
		},
		{
			name:    "duplicate value",
			yaml:    "device_types:\n  - value: a\n  - value: A\nprotocols:\n  - value: x\n",
			wantErr: "duplicate device type",
		},
		{
			name:    "missing value",
			yaml:    "device_types:\n  - label: Nameless\nprotocols:\n  - value: x\n",
			wantErr: "has no value",
		},
		{
			name:    "no protocols",
			yaml:    "device_types:\n  - value: a\n",
			wantErr: "at least one",
		},
		{
			name:    "malformed",
			yaml:    "device_types: [",
			wantErr: "yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(strings.NewReader(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			e, ok := c.DeviceType("thermostat")
			require.True(t, ok)
			assert.Equal(t, "thermostat", e.Value)
			assert.Equal(t, "Thermostat", e.Label)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Len(t, c.Data().Protocols, 4)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device_types:\n  - value: lamp\nprotocols:\n  - value: knx\n    label: KNX\n"), 0644))
	c, err = Load(path)
	require.NoError(t, err)
	_, ok := c.Protocol("knx")
	assert.True(t, ok)
	_, ok = c.Protocol("zigbee")
	assert.False(t, ok)
}
