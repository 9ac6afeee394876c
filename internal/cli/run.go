package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"taqneeq-quiz/internal/common/errors"
	"taqneeq-quiz/internal/models"
	"taqneeq-quiz/internal/quiz"

	"github.com/spf13/cobra"
)

type runOptions struct {
	answers     string
	confidence  float64
	traceOut    string
	noPreflight bool
	reconnects  int
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Take the adaptive classification quiz",
		Long: `Take the adaptive classification quiz.

Each question is answered on a 1-5 scale. Interactively you may add a
confidence after the response, e.g. "4 0.7".

Examples:
  quiz-runner run
  quiz-runner run --answers 4,4,2,5,3,1 --confidence 0.8
  quiz-runner run --trace-out trace.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := parseScript(opts.answers)
			if err != nil {
				return err
			}
			if !(opts.confidence >= models.MinConfidence && opts.confidence <= models.MaxConfidence) {
				return fmt.Errorf("--confidence must be between 0.1 and 1.0, got %v", opts.confidence)
			}

			app, err := NewAppContext(root)
			if err != nil {
				return err
			}
			defer app.Close()

			if opts.noPreflight {
				app.Config.Classifier.HealthPreflight = false
			}

			ops, stopOps := app.StartOpsServer()
			defer stopOps()

			prompter := NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), script, opts.confidence)
			ctrl := app.NewController(prompter)
			if ops != nil {
				ops.SetReady(true)
			}

			runErr := RunSession(cmd.Context(), ctrl, prompter, opts.reconnects)

			if opts.traceOut != "" {
				if err := writeTrace(opts.traceOut, ctrl.Tracer().Entries()); err != nil {
					app.Logger.Warn("Failed to write trace", map[string]interface{}{"path": opts.traceOut, "error": err.Error()})
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&opts.answers, "answers", "a", "", "Comma separated responses (1-5) to answer with instead of prompting")
	cmd.Flags().Float64Var(&opts.confidence, "confidence", 1.0, "Confidence sent with each answer (0.1-1.0)")
	cmd.Flags().StringVar(&opts.traceOut, "trace-out", "", "Write the diagnostic trace to this file as JSON")
	cmd.Flags().BoolVar(&opts.noPreflight, "no-preflight", false, "Skip the health check before starting")
	cmd.Flags().IntVar(&opts.reconnects, "reconnects", 1, "How many times to offer a reconnect when the service is unreachable")
	return cmd
}

// RunSession drives session to a terminal phase using prompter for input and output.
func RunSession(ctx context.Context, session quiz.Session, prompter *Prompter, reconnects int) error {
	err := session.Start(ctx)

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		snap := session.Snapshot()
		switch snap.Phase {
		case quiz.PhaseQuestioning:
			answer, askErr := prompter.Ask(snap)
			if askErr != nil {
				return askErr
			}
			err = session.SubmitAnswer(ctx, answer)
			if err != nil && errors.CodeOf(err) == errors.ErrCodeInvalidAnswer {
				prompter.Notice(err)
			}

		case quiz.PhaseDone:
			prompter.ShowResult(snap)
			return nil

		case quiz.PhaseOffline:
			if reconnects > 0 && prompter.Confirm("Reconnect?") {
				reconnects--
				err = session.Restart(ctx, true)
				continue
			}
			return snapshotErr(snap, err)

		case quiz.PhaseFailed:
			return snapshotErr(snap, err)

		case quiz.PhaseIdle:
			if err == nil {
				err = fmt.Errorf("session did not start")
			}
			return err

		default:
			if err != nil && stderrors.Is(err, quiz.ErrResultDiscarded) {
				return err
			}
			return fmt.Errorf("session stopped in phase %s", snap.Phase)
		}
	}
}

func snapshotErr(snap quiz.Snapshot, fallback error) error {
	if snap.Err != nil {
		return snap.Err
	}
	return fallback
}

func writeTrace(path string, entries []quiz.TraceEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
