package image

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	registrytypes "github.com/docker/docker/api/types/registry"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/relctl/pkg/config"
)

type fakeAPI struct {
	pulled  []string
	tagged  [][2]string
	pushed  []string
	logins  int
	pushOut string
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) ImagePull(ctx context.Context, refStr string, options types.ImagePullOptions) (io.ReadCloser, error) {
	f.pulled = append(f.pulled, refStr)
	return io.NopCloser(strings.NewReader(`{"status":"pulled"}`)), nil
}

func (f *fakeAPI) ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	return types.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(`{"stream":"ok\n"}`))}, nil
}

func (f *fakeAPI) ImageTag(ctx context.Context, source, target string) error {
	f.tagged = append(f.tagged, [2]string{source, target})
	return nil
}

func (f *fakeAPI) ImagePush(ctx context.Context, ref string, options types.ImagePushOptions) (io.ReadCloser, error) {
	f.pushed = append(f.pushed, ref)
	out := f.pushOut
	if out == "" {
		out = `{"status":"pushed"}`
	}
	return io.NopCloser(strings.NewReader(out)), nil
}

func (f *fakeAPI) RegistryLogin(ctx context.Context, auth registrytypes.AuthConfig) (registrytypes.AuthenticateOKBody, error) {
	f.logins++
	return registrytypes.AuthenticateOKBody{}, nil
}

func testCfg() *config.Pipeline {
	return &config.Pipeline{
		Org:          "acme",
		ImageName:    "evm_loader",
		BaseImage:    "solanalabs/solana:v1.18.18",
		BPFVersion:   "v1.18.18",
		HelperImages: []string{"acme/neon_test_programs:latest"},
	}
}

func TestPublish_MutableTagPushedEagerly(t *testing.T) {
	api := &fakeAPI{}
	o := &Orchestrator{API: api, Cfg: testCfg(), Out: &bytes.Buffer{}}

	require.NoError(t, o.Publish(context.Background(), "abc123", "pr-42"))
	require.Equal(t, []string{"acme/evm_loader:abc123", "acme/evm_loader:pr-42"}, api.pushed)
}

func TestPublish_DefersLatestAndReleaseTags(t *testing.T) {
	for _, tag := range []string{"latest", "v1.2.3"} {
		api := &fakeAPI{}
		o := &Orchestrator{API: api, Cfg: testCfg(), Out: &bytes.Buffer{}}

		require.NoError(t, o.Publish(context.Background(), "abc123", tag))
		require.Equal(t, []string{"acme/evm_loader:abc123"}, api.pushed, "tag %s", tag)
	}
}

func TestFinalize_PushesLatestAndReleaseTags(t *testing.T) {
	for _, tag := range []string{"latest", "v1.2.3"} {
		api := &fakeAPI{}
		o := &Orchestrator{API: api, Cfg: testCfg(), Out: &bytes.Buffer{}}

		require.NoError(t, o.Finalize(context.Background(), "abc123", tag))
		require.Equal(t, []string{"acme/evm_loader:" + tag}, api.pushed, "tag %s", tag)
		require.Equal(t, [][2]string{{"acme/evm_loader:abc123", "acme/evm_loader:" + tag}}, api.tagged)
	}
}

func TestFinalize_NoopForMutableTag(t *testing.T) {
	api := &fakeAPI{}
	o := &Orchestrator{API: api, Cfg: testCfg(), Out: &bytes.Buffer{}}

	require.NoError(t, o.Finalize(context.Background(), "abc123", "pr-42"))
	require.Empty(t, api.pushed)
	require.Zero(t, api.logins)
}

func TestPushStreamErrorSurfaces(t *testing.T) {
	api := &fakeAPI{pushOut: `{"errorDetail":{"message":"denied: requested access to the resource is denied"}}`}
	o := &Orchestrator{API: api, Cfg: testCfg(), Out: &bytes.Buffer{}}

	err := o.Publish(context.Background(), "abc123", "latest")
	require.Error(t, err)
	require.Contains(t, err.Error(), "denied")
}

func TestBuild_PullsBaseAndHelpers(t *testing.T) {
	api := &fakeAPI{}
	o := &Orchestrator{API: api, Cfg: testCfg(), Out: &bytes.Buffer{}, ContextDir: t.TempDir()}

	require.NoError(t, o.Build(context.Background(), "abc123"))
	require.Equal(t, []string{"solanalabs/solana:v1.18.18", "acme/neon_test_programs:latest"}, api.pulled)
}
