// Package image drives container image build, tag and push operations against
// the Docker engine, interpreting its streamed event output.
package image

import (
	"context"
	"io"
	"os"

	"github.com/docker/docker/api/types"
	registrytypes "github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/pkg/archive"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/relctl/pkg/config"
	"github.com/go-go-golems/relctl/pkg/tags"
)

// API is the slice of the Docker engine client the orchestrator needs.
type API interface {
	ImagePull(ctx context.Context, refStr string, options types.ImagePullOptions) (io.ReadCloser, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageTag(ctx context.Context, source, target string) error
	ImagePush(ctx context.Context, ref string, options types.ImagePushOptions) (io.ReadCloser, error)
	RegistryLogin(ctx context.Context, auth registrytypes.AuthConfig) (registrytypes.AuthenticateOKBody, error)
}

// Orchestrator builds, publishes and finalizes the artifact image.
type Orchestrator struct {
	API API
	Cfg *config.Pipeline

	// ContextDir is the docker build context, "." when empty.
	ContextDir string
	// Out receives echoed stream output, os.Stdout when nil.
	Out io.Writer
}

func (o *Orchestrator) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

func (o *Orchestrator) contextDir() string {
	if o.ContextDir != "" {
		return o.ContextDir
	}
	return "."
}

// Build pulls the pinned base and helper images, then builds the artifact
// image tagged {org}/{image}:{shaTag}.
func (o *Orchestrator) Build(ctx context.Context, shaTag string) error {
	for _, ref := range append([]string{o.Cfg.BaseImage}, o.Cfg.HelperImages...) {
		if err := o.pull(ctx, ref); err != nil {
			return err
		}
	}

	buildArgs := map[string]*string{
		"REVISION":           ptr(shaTag),
		"SOLANA_IMAGE":       ptr(o.Cfg.BaseImage),
		"SOLANA_BPF_VERSION": ptr(o.Cfg.BPFVersion),
		"DOCKERHUB_ORG_NAME": ptr(o.Cfg.Org),
	}

	buildCtx, err := archive.TarWithOptions(o.contextDir(), &archive.TarOptions{})
	if err != nil {
		return errors.Wrap(err, "tar build context")
	}
	defer func() { _ = buildCtx.Close() }()

	tag := o.Cfg.Image(shaTag)
	log.Info().Str("tag", tag).Msg("start build")
	resp, err := o.API.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:      []string{tag},
		BuildArgs: buildArgs,
		Remove:    true,
	})
	if err != nil {
		return errors.Wrap(err, "image build")
	}
	defer func() { _ = resp.Body.Close() }()

	return NewInterpreter(o.out()).Consume(resp.Body)
}

// Publish pushes the image under its sha tag, and additionally under the
// resolved tag unless that tag is "latest" or a strict release tag. Those are
// deferred to Finalize so they are never published before tests pass.
func (o *Orchestrator) Publish(ctx context.Context, shaTag, resolvedTag string) error {
	if err := o.pushWithTag(ctx, shaTag, shaTag); err != nil {
		return err
	}
	if resolvedTag != "latest" && !tags.IsReleaseTag(resolvedTag) {
		return o.pushWithTag(ctx, shaTag, resolvedTag)
	}
	return nil
}

// Finalize pushes the resolved tag only when it is "latest" or a strict
// release tag; anything else was already published and is a no-op here.
func (o *Orchestrator) Finalize(ctx context.Context, shaTag, resolvedTag string) error {
	if tags.IsReleaseTag(resolvedTag) || resolvedTag == "latest" {
		return o.pushWithTag(ctx, shaTag, resolvedTag)
	}
	log.Info().Str("tag", resolvedTag).Msg("nothing to finalize, the tag is not a version tag or latest")
	return nil
}

func (o *Orchestrator) pull(ctx context.Context, ref string) error {
	log.Info().Str("image", ref).Msg("pulling image")
	rc, err := o.API.ImagePull(ctx, ref, types.ImagePullOptions{})
	if err != nil {
		return errors.Wrapf(err, "pull %s", ref)
	}
	defer func() { _ = rc.Close() }()
	return NewInterpreter(o.out()).Consume(rc)
}

func (o *Orchestrator) pushWithTag(ctx context.Context, sha, tag string) error {
	auth := registrytypes.AuthConfig{
		Username: o.Cfg.DockerUser,
		Password: o.Cfg.DockerPassword,
	}
	if _, err := o.API.RegistryLogin(ctx, auth); err != nil {
		return errors.Wrap(err, "registry login")
	}

	src := o.Cfg.Image(sha)
	dst := o.Cfg.Image(tag)
	if err := o.API.ImageTag(ctx, src, dst); err != nil {
		return errors.Wrapf(err, "tag %s as %s", src, dst)
	}

	encoded, err := registrytypes.EncodeAuthConfig(auth)
	if err != nil {
		return errors.Wrap(err, "encode registry auth")
	}
	log.Info().Str("image", dst).Msg("pushing image")
	rc, err := o.API.ImagePush(ctx, dst, types.ImagePushOptions{RegistryAuth: encoded})
	if err != nil {
		return errors.Wrapf(err, "push %s", dst)
	}
	defer func() { _ = rc.Close() }()
	return NewInterpreter(o.out()).Consume(rc)
}

func ptr(s string) *string { return &s }
