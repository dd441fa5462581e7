package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string seconds", `"30s"`, 30 * time.Second, false},
		{"string millis", `"300ms"`, 300 * time.Millisecond, false},
		{"nanoseconds", `1500000000`, 1500 * time.Millisecond, false},
		{"bad string", `"soon"`, 0, true},
		{"bool", `true`, 0, true},
		{"not json", `30s`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_InStruct(t *testing.T) {
	var cfg struct {
		Timeout  Duration `json:"timeout"`
		Debounce Duration `json:"debounce"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"timeout":"15s"}`), &cfg))
	assert.Equal(t, 15*time.Second, cfg.Timeout.Duration)
	assert.Zero(t, cfg.Debounce.Duration)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeout":"15s","debounce":"0s"}`, string(out))
}
