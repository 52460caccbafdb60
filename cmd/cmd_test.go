package cmd_test

import (
	"path/filepath"
	"testing"

	"github.com/USA-RedDragon/pinpoint-server/cmd"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	baseCmd := cmd.NewCommand("testing", "default")
	// Avoid port conflicts and keep the sqlite database out of the tree
	baseCmd.SetArgs([]string{
		"--http.port", "8082",
		"--http.metrics.port", "8083",
		"--persistence.database.database", filepath.Join(t.TempDir(), "pinpoint.db"),
	})
	err := baseCmd.Execute()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
