package cmds

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/go-go-golems/relctl/pkg/cienv"
	"github.com/go-go-golems/relctl/pkg/registry"
	"github.com/go-go-golems/relctl/pkg/tags"
)

func newSpecifyImageTagsCmd() *cobra.Command {
	var gitRef string
	var gitHeadRef string
	var gitBaseRef string
	var noUppercase bool

	cmd := &cobra.Command{
		Use:   "specify_image_tags",
		Short: "Resolve artifact and test-image tags from git refs and publish them to the CI env",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getValidatedPipeline(cmd)
			if err != nil {
				return err
			}

			res := tags.Resolve(gitRef, gitHeadRef, gitBaseRef, cfg.TrunkBranch)

			prober := registry.NewClient(cfg.RegistryBaseURL, cfg.Org)
			testTag, err := tags.SelectTestTag(cmd.Context(), prober, cfg.TestImageName, res)
			if err != nil {
				return err
			}

			return cienv.Write(cfg.GithubEnvPath, map[string]string{
				"evm_tag":               res.Tag,
				"evm_pr_version_branch": res.PRVersionBranch,
				"is_evm_release":        strconv.FormatBool(res.IsRelease),
				"neon_test_tag":         testTag,
			}, !noUppercase)
		},
	}

	cmd.Flags().StringVar(&gitRef, "git_ref", "", "Git ref that triggered the pipeline")
	cmd.Flags().StringVar(&gitHeadRef, "git_head_ref", "", "PR head ref")
	cmd.Flags().StringVar(&gitBaseRef, "git_base_ref", "", "PR base ref")
	cmd.Flags().BoolVar(&noUppercase, "no-uppercase", false, "Emit env keys as-is instead of upper-cased")
	return cmd
}
