package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company-matching/internal/common/config"
	"company-matching/internal/matching"
)

func TestPrintEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{
			name: "payload keys sorted",
			data: `{"kind":"matching.run.completed","occurredAt":"2024-06-15T14:00:00+02:00","payload":{"runId":"r-1","returned":3,"requesterCompanyId":"c-1"}}`,
			want: "2024-06-15T12:00:00Z matching.run.completed requesterCompanyId=c-1 returned=3 runId=r-1\n",
		},
		{
			name: "empty payload",
			data: `{"kind":"matching.run.completed","occurredAt":"2024-06-15T12:00:00Z"}`,
			want: "2024-06-15T12:00:00Z matching.run.completed\n",
		},
		{name: "not json", data: `hello`, wantErr: true},
		{name: "missing kind", data: `{"payload":{}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := printEvent(&buf, []byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, buf.String())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	resp := &matching.MatchResponse{
		Matches:  []matching.CompactMatch{},
		Metadata: matching.Metadata{RunID: "r-1", Timestamp: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, writeJSON(&buf, resp))
	assert.Contains(t, buf.String(), `"runId": "r-1"`)
	assert.Contains(t, buf.String(), `"matches": []`)
}

func TestEngineConfig(t *testing.T) {
	cfg := &config.Config{Matching: config.MatchingConfig{
		DefaultLimit:     10,
		MaxLimit:         50,
		PoolCap:          200,
		ScoringWorkers:   4,
		SlowRunThreshold: 750,
	}}

	got := engineConfig(cfg)
	assert.Equal(t, 10, got.DefaultLimit)
	assert.Equal(t, 50, got.MaxLimit)
	assert.Equal(t, 200, got.PoolCap)
	assert.Equal(t, 4, got.ScoringWorkers)
	assert.Equal(t, 750*time.Millisecond, got.SlowRunThreshold)
}

func TestRunCommand_RequiresCompany(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "company" not set`)
}
