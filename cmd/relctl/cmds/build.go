package cmds

import (
	"github.com/spf13/cobra"

	"github.com/go-go-golems/relctl/pkg/image"
)

func newBuildDockerImageCmd() *cobra.Command {
	var evmShaTag string
	var contextDir string

	cmd := &cobra.Command{
		Use:   "build_docker_image",
		Short: "Build the artifact image under its sha tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getValidatedPipeline(cmd)
			if err != nil {
				return err
			}
			docker, err := newDockerClient()
			if err != nil {
				return err
			}
			defer func() { _ = docker.Close() }()

			o := &image.Orchestrator{API: docker, Cfg: cfg, ContextDir: contextDir}
			return o.Build(cmd.Context(), evmShaTag)
		},
	}

	cmd.Flags().StringVar(&evmShaTag, "evm_sha_tag", "", "Commit sha used as the build tag")
	cmd.Flags().StringVar(&contextDir, "context", ".", "Docker build context directory")
	_ = cmd.MarkFlagRequired("evm_sha_tag")
	return cmd
}
