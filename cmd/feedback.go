package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/locvowork/pawsheets/internal/bootstrap"
	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/internal/service"
)

var feedbackOutput string

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Operator tools for submitted feedback",
}

var feedbackExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all feedback entries as CSV",
	RunE:  runFeedbackExport,
}

func init() {
	feedbackExportCmd.Flags().StringVarP(&feedbackOutput, "output", "o", "", "Output file (default stdout)")
	feedbackCmd.AddCommand(feedbackExportCmd)
}

func runFeedbackExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := bootstrap.LoadConfig(ctx); err != nil {
		return err
	}
	app := bootstrap.NewApp()
	repos, err := app.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	w := cmd.OutOrStdout()
	if feedbackOutput != "" {
		f, err := os.Create(feedbackOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", feedbackOutput, err)
		}
		defer f.Close()
		w = f
	}
	return exportFeedback(ctx, repos.Feedback, w)
}

// exportFeedback writes every stored feedback entry to w as CSV.
func exportFeedback(ctx context.Context, repo domain.FeedbackRepository, w io.Writer) error {
	data, err := service.NewFeedbackService(repo).ExportCSV(ctx)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write feedback: %w", err)
	}
	logger.InfoLog(ctx, "exported feedback (%d bytes)", len(data))
	return nil
}
