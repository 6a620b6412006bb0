package arium_test

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

func TestHCLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := arium.NewHCLogger(hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Level:  hclog.Info,
		Output: &buf,
	}))

	logger.Debug("hidden", nil)
	logger.Info("Found assets", map[string]interface{}{"total": 10, "collection": "sizes", "count": 2})
	logger.Error("Operation failed", map[string]interface{}{"operation": "get"})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Found assets: collection=sizes count=2 total=10")
	assert.Contains(t, out, "[ERROR] test: Operation failed: operation=get")
}

func TestHCLogger_DefaultsWhenNil(t *testing.T) {
	assert.NotPanics(t, func() {
		arium.NewHCLogger(nil).Warn("x", nil)
	})
}

func TestNoopLogger(t *testing.T) {
	var logger arium.Logger = arium.NoopLogger{}

	assert.NotPanics(t, func() {
		logger.Info("x", map[string]interface{}{"a": 1})
	})
}
