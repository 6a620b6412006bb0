//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIEndpoint string
	Tenant      string
	Token       string
	AriumPath    string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIEndpoint: os.Getenv("ARIUM_TEST_API"),
		Tenant:      os.Getenv("ARIUM_TEST_TENANT"),
		Token:       os.Getenv("ARIUM_TEST_TOKEN"),
		AriumPath:    getAriumPath(),
		Verbose:     os.Getenv("ARIUM_TEST_VERBOSE") == "true",
	}
}

// getAriumPath determines the path to the arium binary
func getAriumPath() string {
	if path := os.Getenv("ARIUM_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../arium", "./arium", "../arium"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "arium"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.APIEndpoint == "" || config.Tenant == "" || config.Token == "" {
		t.Skip("ARIUM_TEST_API, ARIUM_TEST_TENANT or ARIUM_TEST_TOKEN not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.AriumPath); err != nil {
		t.Skipf("arium binary not found at %s, skipping integration test", config.AriumPath)
	}
}

// CommandRunner runs the arium binary against an isolated configuration file
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes an arium command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	cmd := exec.Command(runner.config.AriumPath, args...) // #nosec G204 -- test binary
	cmd.Env = append(os.Environ(),
		"ARIUM_API="+runner.config.APIEndpoint,
		"ARIUM_TENANT="+runner.config.Tenant,
		"ARIUM_TOKEN="+runner.config.Token,
	)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.AriumPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON executes an arium command with JSON output and decodes it into out
func (runner *CommandRunner) RunJSON(out interface{}, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	require.NoError(runner.t, err, "arium %s failed: %s", strings.Join(args, " "), stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), out), "output is not JSON: %s", stdout)
}

// GenerateTestName creates a unique test asset name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CleanupAsset attempts to delete a test asset
func (runner *CommandRunner) CleanupAsset(collection, assetID string) {
	stdout, stderr, err := runner.Run("assets", "delete", assetID, "--collection", collection)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", collection, assetID, stdout, stderr)
	}
}
