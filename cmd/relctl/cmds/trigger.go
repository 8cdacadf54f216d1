package cmds

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/relctl/pkg/downstream"
	"github.com/go-go-golems/relctl/pkg/tags"
)

func newTriggerProxyActionCmd() *cobra.Command {
	var evmPRVersionBranch string
	var isEvmRelease string
	var evmShaTag string
	var evmTag string
	var token string
	var labels []string
	var prURL string
	var prNumber string

	cmd := &cobra.Command{
		Use:   "trigger_proxy_action",
		Short: "Trigger the downstream proxy pipeline and wait for its conclusion",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getPipeline(cmd)
			if err != nil {
				return err
			}
			if cfg.DownstreamOwner == "" || cfg.DownstreamRepo == "" {
				return errors.New("missing downstream repository (PROXY_REPO)")
			}

			isRelease := false
			if isEvmRelease != "" {
				isRelease, err = strconv.ParseBool(isEvmRelease)
				if err != nil {
					return errors.Wrapf(err, "parse is_evm_release %q", isEvmRelease)
				}
			}

			actions := downstream.NewGithubActions(cmd.Context(), token,
				cfg.DownstreamOwner, cfg.DownstreamRepo, cfg.DownstreamWorkflow)
			c := &downstream.Coordinator{Actions: actions, Cfg: cfg}

			return c.Trigger(cmd.Context(), downstream.TriggerOptions{
				Resolution: tags.Resolution{
					Tag:             evmTag,
					PRVersionBranch: evmPRVersionBranch,
					IsRelease:       isRelease,
				},
				ShaTag:   evmShaTag,
				Labels:   labels,
				PRURL:    prURL,
				PRNumber: prNumber,
			})
		},
	}

	cmd.Flags().StringVar(&evmPRVersionBranch, "evm_pr_version_branch", "", "Paired version branch from tag resolution")
	cmd.Flags().StringVar(&isEvmRelease, "is_evm_release", "false", "Release classification from tag resolution")
	cmd.Flags().StringVar(&evmShaTag, "evm_sha_tag", "", "Commit sha the image was built under")
	cmd.Flags().StringVar(&evmTag, "evm_tag", "", "Resolved artifact tag")
	cmd.Flags().StringVar(&token, "token", "", "GitHub token for the downstream repository")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "Upstream PR labels")
	cmd.Flags().StringVar(&prURL, "pr_url", "", "Upstream PR comments API base URL")
	cmd.Flags().StringVar(&prNumber, "pr_number", "", "Upstream PR number")
	_ = cmd.MarkFlagRequired("evm_tag")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
