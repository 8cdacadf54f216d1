package cmds

import (
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/relctl/pkg/config"
)

func AddRootFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", config.DefaultConfigFilename, "Path to the pipeline config file")
}

func getPipeline(cmd *cobra.Command) (*config.Pipeline, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path, config.FromEnv())
}

func getValidatedPipeline(cmd *cobra.Command) (*config.Pipeline, error) {
	cfg, err := getPipeline(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDockerClient() (*client.Client, error) {
	c, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "connect to docker daemon")
	}
	return c, nil
}
