package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DOCKERHUB_ORG_NAME", "acme")
	t.Setenv("IMAGE_NAME", "")
	t.Setenv("PROXY_REPO", "acme/proxy-model")

	p := FromEnv()
	require.Equal(t, "evm_loader", p.ImageName)
	require.Equal(t, "neon_tests", p.TestImageName)
	require.Equal(t, "develop", p.TrunkBranch)
	require.Equal(t, "acme", p.DownstreamOwner)
	require.Equal(t, "proxy-model", p.DownstreamRepo)
	require.Equal(t, []string{"acme/neon_test_programs:latest"}, p.HelperImages)
	require.NoError(t, p.Validate())
}

func TestValidate_MissingOrg(t *testing.T) {
	p := &Pipeline{ImageName: "evm_loader"}
	require.Error(t, p.Validate())
}

func TestLoad_MissingFileKeepsBase(t *testing.T) {
	base := &Pipeline{Org: "acme", ImageName: "evm_loader"}
	got, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), base)
	require.NoError(t, err)
	require.Equal(t, base, got)
}

func TestLoad_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".relctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("org: overridden\ncompose_bin: docker compose\n"), 0o644))

	base := &Pipeline{Org: "acme", ImageName: "evm_loader", ComposeBin: "docker-compose"}
	got, err := Load(path, base)
	require.NoError(t, err)
	require.Equal(t, "overridden", got.Org)
	require.Equal(t, "docker compose", got.ComposeBin)
	require.Equal(t, "evm_loader", got.ImageName)
}

func TestImageRefs(t *testing.T) {
	p := &Pipeline{Org: "acme", ImageName: "evm_loader", TestImageName: "neon_tests"}
	require.Equal(t, "acme/evm_loader:abc", p.Image("abc"))
	require.Equal(t, "acme/neon_tests:latest", p.TestImage("latest"))
}
