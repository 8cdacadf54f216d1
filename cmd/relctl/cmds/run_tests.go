package cmds

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/relctl/pkg/compose"
	"github.com/go-go-golems/relctl/pkg/testrun"
)

func newRunTestsCmd() *cobra.Command {
	var evmShaTag string
	var neonTestTag string
	var runNumber int
	var runAttempt int

	cmd := &cobra.Command{
		Use:   "run_tests",
		Short: "Bring up the test topology, run the suite and tear everything down",
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

			runner := &compose.CLI{
				Bin:  cfg.ComposeBin,
				File: cfg.ComposeFile,
				Env: map[string]string{
					"EVM_LOADER_IMAGE": cfg.Image(evmShaTag),
					"NEON_TESTS_IMAGE": cfg.TestImage(neonTestTag),
				},
			}

			o := &testrun.Orchestrator{Compose: runner, Docker: docker, Cfg: cfg}
			res, err := o.Run(cmd.Context(), testrun.Options{
				ShaTag:     evmShaTag,
				RunNumber:  runNumber,
				RunAttempt: runAttempt,
			})
			if err != nil {
				return err
			}
			if res.Failed {
				cmd.SilenceUsage = true
				return errors.New("tests are failed")
			}
			log.Info().Int("exit_code", res.ExitCode).Msg("tests passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&evmShaTag, "evm_sha_tag", "", "Commit sha the image was built under")
	cmd.Flags().StringVar(&neonTestTag, "neon_test_tag", "", "Test image tag")
	cmd.Flags().IntVar(&runNumber, "run_number", 1, "CI run number")
	cmd.Flags().IntVar(&runAttempt, "run_attempt", 1, "CI run attempt")
	_ = cmd.MarkFlagRequired("evm_sha_tag")
	_ = cmd.MarkFlagRequired("neon_test_tag")
	return cmd
}
