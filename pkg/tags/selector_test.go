package tags

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	existing map[string]bool
	err      error
}

var _ Prober = (*fakeProber)(nil)

func (f *fakeProber) TagExists(ctx context.Context, image, tag string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[image+":"+tag], nil
}

func TestSelectTestTag_ExactMatchWins(t *testing.T) {
	p := &fakeProber{existing: map[string]bool{
		"neon_tests:v1.2.x":  true,
		"neon_tests:feature": true,
	}}
	got, err := SelectTestTag(context.Background(), p, "neon_tests",
		Resolution{Tag: "feature", PRVersionBranch: "v1.2.x"})
	require.NoError(t, err)
	require.Equal(t, "feature", got)
}

func TestSelectTestTag_ReleaseFloating(t *testing.T) {
	p := &fakeProber{existing: map[string]bool{"neon_tests:v1.2.x": true}}
	got, err := SelectTestTag(context.Background(), p, "neon_tests",
		Resolution{Tag: "v1.2.3", IsRelease: true})
	require.NoError(t, err)
	require.Equal(t, "v1.2.x", got)
}

func TestSelectTestTag_ReleaseMissingFloatingIsFatal(t *testing.T) {
	p := &fakeProber{existing: map[string]bool{}}
	_, err := SelectTestTag(context.Background(), p, "neon_tests",
		Resolution{Tag: "v1.2.3", IsRelease: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "v1.2.x")
}

func TestSelectTestTag_PairedVersionBranch(t *testing.T) {
	p := &fakeProber{existing: map[string]bool{"neon_tests:v1.2.x": true}}
	got, err := SelectTestTag(context.Background(), p, "neon_tests",
		Resolution{Tag: "pr-42", PRVersionBranch: "v1.2.x"})
	require.NoError(t, err)
	require.Equal(t, "v1.2.x", got)
}

func TestSelectTestTag_FallbackLatest(t *testing.T) {
	p := &fakeProber{existing: map[string]bool{}}
	got, err := SelectTestTag(context.Background(), p, "neon_tests", Resolution{Tag: "pr-42"})
	require.NoError(t, err)
	require.Equal(t, "latest", got)
}

func TestSelectTestTag_ProbeErrorPropagates(t *testing.T) {
	p := &fakeProber{err: errors.New("registry unreachable")}
	_, err := SelectTestTag(context.Background(), p, "neon_tests", Resolution{Tag: "pr-42"})
	require.Error(t, err)
}
