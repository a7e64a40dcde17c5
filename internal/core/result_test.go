package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapExitCode(t *testing.T) {
	assert.Equal(t, Success, MapExitCode(0))
	for _, code := range []int{1, 2, 3, 127, 255, -1} {
		assert.Equal(t, Unstable, MapExitCode(code), "exit code %d", code)
	}
}

func TestCombine(t *testing.T) {
	assert.Equal(t, Unstable, Combine(Success, Unstable))
	assert.Equal(t, Failure, Combine(Failure, Unstable))
	assert.Equal(t, Aborted, Combine(Unstable, Aborted))
	assert.Equal(t, Success, Combine(Success, Success))
	assert.False(t, ConfigErrorOutcome.IsBuildResult())
}

func TestBuildSetResultOnlyWorsens(t *testing.T) {
	b := NewBuild("job", t.TempDir(), nil, nil, nil)
	assert.Equal(t, Success, b.Result())

	b.SetResult(Unstable)
	assert.Equal(t, Unstable, b.Result())

	b.SetResult(Success)
	assert.Equal(t, Unstable, b.Result())

	b.SetResult(ConfigErrorOutcome)
	assert.Equal(t, Unstable, b.Result())

	b.SetResult(Failure)
	b.SetResult(Unstable)
	assert.Equal(t, Failure, b.Result())
}

func TestBuildEnvironmentVariablesWin(t *testing.T) {
	b := NewBuild("job", "", map[string]string{"A": "env", "B": "env"}, map[string]string{"B": "var", "C": "var"}, nil)
	assert.Equal(t, map[string]string{"A": "env", "B": "var", "C": "var"}, b.Environment())
}

func TestEnvFromList(t *testing.T) {
	env := EnvFromList([]string{"A=1", "B=x=y", "broken", "=nokey", "EMPTY="})
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "EMPTY": ""}, env)
}

func TestInheritedEnv(t *testing.T) {
	t.Setenv("MOZMILL_CI_TEST_INHERITED", "outer")
	env := InheritedEnv(map[string]string{"MOZMILL_CI_TEST_EXTRA": "1"})
	assert.Equal(t, "outer", env["MOZMILL_CI_TEST_INHERITED"])
	assert.Equal(t, "1", env["MOZMILL_CI_TEST_EXTRA"])
}
