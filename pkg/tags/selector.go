package tags

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Prober answers whether an image tag exists in the remote registry.
type Prober interface {
	TagExists(ctx context.Context, image, tag string) (bool, error)
}

// SelectTestTag picks the test-image tag for a resolution, first match wins:
//
//  1. a test image tagged exactly as the artifact tag
//  2. for releases, the floating ".x" form of the tag; missing is fatal
//  3. the paired version branch, when a test image exists for it
//  4. "latest"
func SelectTestTag(ctx context.Context, prober Prober, testImage string, res Resolution) (string, error) {
	if res.Tag != "" {
		ok, err := prober.TagExists(ctx, testImage, res.Tag)
		if err != nil {
			return "", err
		}
		if ok {
			return res.Tag, nil
		}
	}

	if res.IsRelease {
		floating := FloatingTag(res.Tag)
		ok, err := prober.TagExists(ctx, testImage, floating)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.Errorf("%s image with %s tag isn't found", testImage, floating)
		}
		return floating, nil
	}

	if res.PRVersionBranch != "" {
		ok, err := prober.TagExists(ctx, testImage, res.PRVersionBranch)
		if err != nil {
			return "", err
		}
		if ok {
			return res.PRVersionBranch, nil
		}
	}

	log.Debug().Str("tag", res.Tag).Msg("no matching test image, falling back to latest")
	return "latest", nil
}
