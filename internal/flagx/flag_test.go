package flagx

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "conf.yaml", "-http", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "conf.yaml"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=alt.json", "-http", "localhost"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=alt.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "flag without value at end is kept as-is",
			args:         []string{"-c"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "flag followed by another flag (no value)",
			args:         []string{"-c", "-notvalue"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c"},
		},
		{
			name:         "value that looks like a flag in equals form",
			args:         []string{"--config=--weird.json"},
			allowedFlags: []string{"--config"},
			want:         []string{"--config=--weird.json"},
		},
		{
			name:         "multiple allowed flags kept in order",
			args:         []string{"-s", "secret", "-c", "conf.json", "--other", "x"},
			allowedFlags: []string{"-c", "-s"},
			want:         []string{"-s", "secret", "-c", "conf.json"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "repeated allowed flag is preserved",
			args:         []string{"-c", "one.json", "-c", "two.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "one.json", "-c", "two.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/path/short.yaml"}, "/path/short.yaml"},
		{"long", []string{"-config", "/path/long.json"}, "/path/long.json"},
		{"double dash equals", []string{"--config=/path/eq.yaml"}, "/path/eq.yaml"},
		{"unknown ignored", []string{"-x", "1", "-y", "2"}, ""},
		{"last wins", []string{"-c", "/path/1.json", "-config", "/path/2.json"}, "/path/2.json"},
		{"missing value", []string{"-c"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}

func TestEnvFileFlag(t *testing.T) {
	assert.Equal(t, "prod.env", EnvFileFlag([]string{"-c", "x.yaml", "-env", "prod.env"}))
	assert.Empty(t, EnvFileFlag([]string{"-c", "x.yaml"}))
}
