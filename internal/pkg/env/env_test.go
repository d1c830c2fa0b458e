package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergedPrefersEnvFile(t *testing.T) {
	t.Setenv("LAUNCHPAD_TEST_A", "process")
	t.Setenv("LAUNCHPAD_TEST_B", "process")
	fileEnv = map[string]string{"LAUNCHPAD_TEST_B": "file", "LAUNCHPAD_TEST_C": "file"}
	t.Cleanup(func() { fileEnv = nil })

	merged := Merged()
	assert.Equal(t, "process", merged["LAUNCHPAD_TEST_A"])
	assert.Equal(t, "file", merged["LAUNCHPAD_TEST_B"])
	assert.Equal(t, "file", merged["LAUNCHPAD_TEST_C"])
}
