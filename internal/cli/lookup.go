package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"taqneeq-quiz/internal/classifier"
	"taqneeq-quiz/internal/models"

	"github.com/spf13/cobra"
)

// withClient builds an AppContext, runs fn with the classifier client and
// prints whatever fn returns as indented JSON.
func withClient(cmd *cobra.Command, root *rootOptions, fn func(ctx context.Context, c *classifier.Client) (interface{}, error)) error {
	app, err := NewAppContext(root)
	if err != nil {
		return err
	}
	defer app.Close()

	out, err := fn(cmd.Context(), app.Client)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func newHealthCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the classification service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, c *classifier.Client) (interface{}, error) {
				status, err := c.Health(ctx)
				if err != nil {
					return nil, err
				}
				if !status.IsHealthy() {
					return status, fmt.Errorf("service reported status %q", status.Status)
				}
				return status, nil
			})
		},
	}
}

func newDepartmentsCmd(root *rootOptions) *cobra.Command {
	var (
		traits bool
		search string
	)

	cmd := &cobra.Command{
		Use:   "departments",
		Short: "List departments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, c *classifier.Client) (interface{}, error) {
				return c.Departments(ctx, models.DepartmentQuery{IncludeTraits: traits, Search: search})
			})
		},
	}
	cmd.Flags().BoolVar(&traits, "traits", false, "Include each department's top traits")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only list departments matching this text")
	return cmd
}

func newDepartmentCmd(root *rootOptions) *cobra.Command {
	var (
		traits  bool
		similar int
	)

	cmd := &cobra.Command{
		Use:   "department <id>",
		Short: "Show one department",
		Long: `Show one department, or departments similar to it.

Examples:
  quiz-runner department technical --traits
  quiz-runner department technical --similar 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withClient(cmd, root, func(ctx context.Context, c *classifier.Client) (interface{}, error) {
				if similar > 0 {
					return c.SimilarDepartments(ctx, id, similar)
				}
				return c.Department(ctx, id, traits)
			})
		},
	}
	cmd.Flags().BoolVar(&traits, "traits", false, "Include the department's top traits")
	cmd.Flags().IntVar(&similar, "similar", 0, "List this many similar departments instead")
	return cmd
}

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show the service's view of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, c *classifier.Client) (interface{}, error) {
				return c.SessionStatus(ctx, args[0])
			})
		},
	}
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show service statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, root, func(ctx context.Context, c *classifier.Client) (interface{}, error) {
				return c.Stats(ctx)
			})
		},
	}
}
