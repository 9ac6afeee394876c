package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	baseURL    string
	logLevel   string
}

// NewRootCmd builds the quiz-runner command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "quiz-runner",
		Short: "Find your Taqneeq department with the adaptive classification quiz",
		Long: `quiz-runner drives the adaptive classification quiz against the Taqneeq
classification service and browses the departments it knows about.

Examples:
  quiz-runner run                          # Take the quiz interactively
  quiz-runner run --answers 4,3,5,2,4      # Answer from a script
  quiz-runner health                       # Check the classification service
  quiz-runner departments --search design  # Search departments`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Override classifier.base_url")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level")

	cmd.AddCommand(
		newRunCmd(opts),
		newHealthCmd(opts),
		newDepartmentsCmd(opts),
		newDepartmentCmd(opts),
		newStatusCmd(opts),
		newStatsCmd(opts),
	)
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
