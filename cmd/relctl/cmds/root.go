package cmds

import (
	"github.com/spf13/cobra"
)

func AddCommands(root *cobra.Command) error {
	root.AddCommand(newSpecifyImageTagsCmd())
	root.AddCommand(newBuildDockerImageCmd())
	root.AddCommand(newPublishImageCmd())
	root.AddCommand(newFinalizeImageCmd())
	root.AddCommand(newRunTestsCmd())
	root.AddCommand(newTriggerProxyActionCmd())
	root.AddCommand(newSendNotificationCmd())
	return nil
}
