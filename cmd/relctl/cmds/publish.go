package cmds

import (
	"github.com/spf13/cobra"

	"github.com/go-go-golems/relctl/pkg/image"
)

func newPublishImageCmd() *cobra.Command {
	var evmShaTag string
	var evmTag string

	cmd := &cobra.Command{
		Use:   "publish_image",
		Short: "Push the sha tag, plus mutable tags; latest and release tags wait for finalize",
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

			o := &image.Orchestrator{API: docker, Cfg: cfg}
			return o.Publish(cmd.Context(), evmShaTag, evmTag)
		},
	}

	cmd.Flags().StringVar(&evmShaTag, "evm_sha_tag", "", "Commit sha the image was built under")
	cmd.Flags().StringVar(&evmTag, "evm_tag", "", "Resolved artifact tag")
	_ = cmd.MarkFlagRequired("evm_sha_tag")
	_ = cmd.MarkFlagRequired("evm_tag")
	return cmd
}

func newFinalizeImageCmd() *cobra.Command {
	var evmShaTag string
	var evmTag string

	cmd := &cobra.Command{
		Use:   "finalize_image",
		Short: "Push latest or release tags after tests passed",
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

			o := &image.Orchestrator{API: docker, Cfg: cfg}
			return o.Finalize(cmd.Context(), evmShaTag, evmTag)
		},
	}

	cmd.Flags().StringVar(&evmShaTag, "evm_sha_tag", "", "Commit sha the image was built under")
	cmd.Flags().StringVar(&evmTag, "evm_tag", "", "Resolved artifact tag")
	_ = cmd.MarkFlagRequired("evm_sha_tag")
	_ = cmd.MarkFlagRequired("evm_tag")
	return cmd
}
