package cmds

import (
	"github.com/spf13/cobra"

	"github.com/go-go-golems/relctl/pkg/notify"
)

func newSendNotificationCmd() *cobra.Command {
	var evmTag string
	var url string
	var buildURL string

	cmd := &cobra.Command{
		Use:   "send_notification",
		Short: "Send a build-failure notification to slack",
		RunE: func(cmd *cobra.Command, args []string) error {
			n := notify.New(url)
			return n.SendBuildFailure(cmd.Context(), evmTag, buildURL)
		},
	}

	cmd.Flags().StringVar(&evmTag, "evm_tag", "", "Resolved artifact tag")
	cmd.Flags().StringVar(&url, "url", "", "Slack app endpoint url")
	cmd.Flags().StringVar(&buildURL, "build_url", "", "Failed CI build url")
	_ = cmd.MarkFlagRequired("evm_tag")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("build_url")
	return cmd
}
