package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-a", "http://api.local/api/v1", "-t", "15"},
			allowed: []string{"-a"},
			want:    []string{"-a", "http://api.local/api/v1"},
		},
		{
			name:    "equals form",
			args:    []string{"-d=/tmp/spotlight.db", "-l", "20"},
			allowed: []string{"-d"},
			want:    []string{"-d=/tmp/spotlight.db"},
		},
		{
			name:    "order preserved across flags",
			args:    []string{"-l", "5", "-x", "1", "-a", "http://h", "-c", "conf.json"},
			allowed: []string{"-a", "-l"},
			want:    []string{"-l", "5", "-a", "http://h"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "search"},
			allowed: []string{"-a"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-t"},
			allowed: []string{"-t"},
			want:    []string{"-t"},
		},
		{
			name:    "next flag is not a value",
			args:    []string{"-t", "-l", "5"},
			allowed: []string{"-t"},
			want:    []string{"-t"},
		},
		{
			name:    "equals value may start with a dash",
			args:    []string{"--config=--odd.json"},
			allowed: []string{"--config"},
			want:    []string{"--config=--odd.json"},
		},
		{
			name:    "repeated flag kept",
			args:    []string{"-l", "5", "-l", "7"},
			allowed: []string{"-l"},
			want:    []string{"-l", "5", "-l", "7"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: []string{"-a"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/etc/spotlight.json"}, "/etc/spotlight.json"},
		{"long", []string{"-config", "/etc/long.json"}, "/etc/long.json"},
		{"equals", []string{"-a", "http://h", "-config=/etc/eq.json"}, "/etc/eq.json"},
		{"last wins", []string{"-c", "1.json", "-config", "2.json"}, "2.json"},
		{"absent", []string{"-a", "http://h", "-l", "3"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
