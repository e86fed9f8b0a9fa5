package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/page-audit/internal/audit"
	"github.com/sells-group/page-audit/internal/model"
)

func TestLoadTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
targets:
  - url: https://acme.com
    expected_phone: "(555) 123-4567"
    business_name: Acme Plumbing
  - url: https://beta.example
    address: Springfield, IL
`), 0o644))

	targets, err := loadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "https://acme.com", targets[0].URL)
	assert.Equal(t, "(555) 123-4567", targets[0].Inputs.ExpectedPhone)
	assert.Equal(t, "Acme Plumbing", targets[0].Inputs.BusinessName)
	assert.Equal(t, "Springfield, IL", targets[1].Inputs.Address)
}

func TestLoadTargets_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadTargets(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch: read targets")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("targets: [unclosed"), 0o644))
	_, err = loadTargets(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch: parse targets")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("targets: []\n"), 0o644))
	_, err = loadTargets(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no targets")
}

func TestProcessBatch_ContinuesPastFailures(t *testing.T) {
	targets := []model.AuditTarget{
		{URL: "https://a.example"},
		{URL: "https://down.example"},
		{URL: "https://c.example"},
	}

	var calls atomic.Int64
	run := func(_ context.Context, target model.AuditTarget) (*audit.Outcome, error) {
		calls.Add(1)
		if target.URL == "https://down.example" {
			return nil, errors.New("connection refused")
		}
		return &audit.Outcome{Report: &model.Report{URL: target.URL}}, nil
	}

	var out bytes.Buffer
	require.NoError(t, processBatch(context.Background(), targets, 2, &out, run))
	assert.Equal(t, int64(3), calls.Load())

	var urls []string
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		urls = append(urls, line["url"].(string))
	}
	assert.ElementsMatch(t, []string{"https://a.example", "https://c.example"}, urls)
}

func TestProcessBatch_RespectsConcurrency(t *testing.T) {
	targets := make([]model.AuditTarget, 8)
	for i := range targets {
		targets[i] = model.AuditTarget{HTML: "<p>x</p>"}
	}

	var inFlight, peak atomic.Int64
	block := make(chan struct{})
	run := func(_ context.Context, _ model.AuditTarget) (*audit.Outcome, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-block
		inFlight.Add(-1)
		return &audit.Outcome{Report: &model.Report{}}, nil
	}

	done := make(chan error)
	go func() { done <- processBatch(context.Background(), targets, 3, &bytes.Buffer{}, run) }()
	close(block)
	require.NoError(t, <-done)
	assert.LessOrEqual(t, peak.Load(), int64(3))
}
