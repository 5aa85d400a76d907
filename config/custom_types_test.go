/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestByteSize_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		{name: "integer", input: "1024", want: 1024},
		{name: "human-readable", input: "10MB", want: 10 * 1024 * 1024},
		{name: "short suffix", input: "10M", want: 10 * 1024 * 1024},
		{name: "k8s suffix", input: "512Ki", want: 512 * 1024},
		{name: "invalid", input: "invalid", wantErr: true},
		{name: "negative", input: "-1024", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromJSON ByteSize
			jsonErr := json.Unmarshal([]byte(`"`+tt.input+`"`), &fromJSON)

			var fromYAML struct {
				Size ByteSize `yaml:"size"`
			}
			yamlErr := yaml.Unmarshal([]byte("size: "+tt.input), &fromYAML)

			var fromText ByteSize
			textErr := fromText.UnmarshalText([]byte(tt.input))

			if tt.wantErr {
				require.Error(t, jsonErr)
				require.Error(t, yamlErr)
				require.Error(t, textErr)
				return
			}
			require.NoError(t, jsonErr)
			require.NoError(t, yamlErr)
			require.NoError(t, textErr)
			require.Equal(t, tt.want, fromJSON)
			require.Equal(t, tt.want, fromYAML.Size)
			require.Equal(t, tt.want, fromText)
		})
	}
}

func TestByteSize_Marshal(t *testing.T) {
	size := ByteSize(10 * 1024 * 1024)
	require.Equal(t, "10M", size.String())

	data, err := json.Marshal(size)
	require.NoError(t, err)
	require.Equal(t, `"10M"`, string(data))

	yamlData, err := yaml.Marshal(struct {
		Size ByteSize `yaml:"size"`
	}{size})
	require.NoError(t, err)
	require.Equal(t, "size: 10M\n", string(yamlData))
}

func TestTimeDuration_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeDuration
		wantErr bool
	}{
		{name: "nanoseconds", input: "1000", want: TimeDuration(time.Microsecond)},
		{name: "human-readable", input: "24h", want: TimeDuration(24 * time.Hour)},
		{name: "compound", input: "1h30m", want: TimeDuration(90 * time.Minute)},
		{name: "invalid", input: "daily", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromJSON TimeDuration
			jsonErr := json.Unmarshal([]byte(`"`+tt.input+`"`), &fromJSON)

			var fromYAML struct {
				Window TimeDuration `yaml:"window"`
			}
			yamlErr := yaml.Unmarshal([]byte("window: "+tt.input), &fromYAML)

			if tt.wantErr {
				require.Error(t, jsonErr)
				require.Error(t, yamlErr)
				return
			}
			require.NoError(t, jsonErr)
			require.NoError(t, yamlErr)
			require.Equal(t, tt.want, fromJSON)
			require.Equal(t, tt.want, fromYAML.Window)
		})
	}
}

func TestTimeDuration_Marshal(t *testing.T) {
	d := TimeDuration(90 * time.Minute)
	require.Equal(t, "1h30m0s", d.String())

	data, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"1h30m0s"`, string(data))
}
