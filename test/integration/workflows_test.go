//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetsWorkflow_ListCollections(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)

	for _, collection := range []string{"portfolios", "events", "sizes"} {
		stdout, stderr, err := runner.Run("assets", "empty", "--collection", collection)
		require.NoError(t, err, "Failed to check %s: %s", collection, stderr)
		assert.Contains(t, []string{"true\n", "false\n"}, stdout)

		if stdout == "false\n" {
			var assets []map[string]interface{}
			runner.RunJSON(&assets, "assets", "list", "--collection", collection)
			assert.NotEmpty(t, assets)
		}
	}
}

func TestAssetsWorkflow_Lifecycle(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	name := GenerateTestName("integration-size")

	// 1. Create and wait for processing
	var created map[string]interface{}
	runner.RunJSON(&created, "assets", "create", name, "--collection", "sizes", "--data", `{"rows":[[1,2],[3,4]]}`)

	assetID, _ := created["id"].(string)
	require.NotEmpty(t, assetID)

	defer runner.CleanupAsset("sizes", assetID)

	assert.NotEqual(t, "uploading", created["status"])
	assert.NotEqual(t, "processing", created["status"])

	// 2. Describe it
	_, stderr, err := runner.Run("assets", "set-description", assetID, "integration test asset", "--collection", "sizes")
	require.NoError(t, err, "Failed to set description: %s", stderr)

	stdout, stderr, err := runner.Run("assets", "description", assetID, "--collection", "sizes")
	require.NoError(t, err, "Failed to get description: %s", stderr)
	assert.Contains(t, stdout, "integration test asset")

	// 3. Rename, which creates a new version
	var renamed map[string]interface{}
	runner.RunJSON(&renamed, "assets", "rename", assetID, name+"-renamed", "--collection", "sizes")
	assert.NotEmpty(t, renamed)

	var versions []map[string]interface{}
	runner.RunJSON(&versions, "assets", "versions", assetID, "--collection", "sizes")
	assert.GreaterOrEqual(t, len(versions), 1)

	// 4. Lock and unlock
	_, stderr, err = runner.Run("assets", "lock", assetID, "--collection", "sizes")
	require.NoError(t, err, "Failed to lock: %s", stderr)

	_, stderr, err = runner.Run("assets", "unlock", assetID, "--collection", "sizes")
	require.NoError(t, err, "Failed to unlock: %s", stderr)

	// 5. Export to a local archive
	folder := t.TempDir()

	_, stderr, err = runner.Run("assets", "export", assetID, "--collection", "sizes", "--folder", folder, "--name", "export.zip")
	require.NoError(t, err, "Failed to export: %s", stderr)

	info, err := os.Stat(filepath.Join(folder, "export.zip"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
