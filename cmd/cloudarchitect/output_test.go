package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lucksec/cloudarchitect/internal/domain"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{
		"monthlyrequests=5_000_000",
		"DataPerRequestKB=12.5",
		"dataResidency=eu",
		"title=chat app",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"monthlyRequests":  int64(5_000_000),
		"dataPerRequestKB": 12.5,
		"dataResidency":    "eu",
		"title":            "chat app",
	}, got)
}

func TestParseAssignmentsErrors(t *testing.T) {
	cases := map[string][]string{
		"missing equals": {"title"},
		"unknown field":  {"region=eu"},
		"bad integer":    {"monthlyRequests=lots"},
		"bad number":     {"dataPerRequestKB=big"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseAssignments(args)
			assert.Error(t, err)
		})
	}
}

func TestPrintArchitectures(t *testing.T) {
	var buf bytes.Buffer
	printArchitectures(&buf, []domain.ArchitectureOption{{
		ID:      "edge",
		Name:    "Edge first",
		Summary: "Workers and KV",
		Components: []domain.ArchitectureComponent{{
			ID:       "api",
			Kind:     domain.KindCFWorker,
			Provider: domain.ProviderCloudflare,
			Name:     "API",
			Config:   map[string]any{"routes": 2, "cpu": "50ms"},
		}},
	}})

	out := buf.String()
	assert.Contains(t, out, "[1] Edge first (edge)")
	assert.Contains(t, out, "cf_worker")
	assert.Contains(t, out, `cpu="50ms" routes=2`)

	buf.Reset()
	printArchitectures(&buf, nil)
	assert.Contains(t, buf.String(), "还没有生成架构方案")
}

func TestPrintValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printValue(&buf, outputYAML, domain.NewProjectState()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "collecting-requirements", decoded["phase"])

	buf.Reset()
	require.NoError(t, printValue(&buf, outputJSON, map[string]int{"count": 2}))
	assert.JSONEq(t, `{"count": 2}`, buf.String())

	assert.Error(t, printValue(&buf, "xml", nil))
}

func TestMaskSecretForCLI(t *testing.T) {
	assert.Equal(t, "****", maskSecretForCLI("short"))
	assert.Equal(t, "sk-a****wxyz", maskSecretForCLI("sk-abcdefghijklmnopqrstuvwxyz"))
}
