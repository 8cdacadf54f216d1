package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	c := &CLI{Bin: "docker-compose", File: "./ci/docker-compose-ci.yml"}
	require.Equal(t,
		[]string{"-p", "proj", "-f", "./ci/docker-compose-ci.yml", "up", "-d"},
		c.args("proj", "up", "-d"))
}

func TestCommand_SplitsMultiWordBin(t *testing.T) {
	c := &CLI{Bin: "docker compose", File: "f.yml"}
	cmd, err := c.command(context.Background(), "proj", "down")
	require.NoError(t, err)
	require.Equal(t, []string{"docker", "compose", "-p", "proj", "-f", "f.yml", "down"}, cmd.Args)
}

func TestCommand_MergesEnv(t *testing.T) {
	c := &CLI{Bin: "docker-compose", File: "f.yml", Env: map[string]string{
		"EVM_LOADER_IMAGE": "acme/evm_loader:abc",
	}}
	cmd, err := c.command(context.Background(), "proj", "pull")
	require.NoError(t, err)
	require.Contains(t, cmd.Env, "EVM_LOADER_IMAGE=acme/evm_loader:abc")
}

func TestCommand_EmptyBinIsAnError(t *testing.T) {
	c := &CLI{Bin: "", File: "f.yml"}

	_, err := c.command(context.Background(), "proj", "ps")
	require.Error(t, err)

	// the error surfaces through every runner method instead of a panic
	require.Error(t, c.Down(context.Background(), "proj"))
	_, err = c.PS(context.Background(), "proj")
	require.Error(t, err)
}

func TestMergeEnv_EmptyExtraKeepsBase(t *testing.T) {
	base := []string{"A=1"}
	require.Equal(t, base, mergeEnv(base, nil))
}
