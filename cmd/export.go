package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/locvowork/pawsheets/internal/bootstrap"
	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/internal/service"
	"github.com/locvowork/pawsheets/pkg/dataflow"
	"github.com/locvowork/pawsheets/pkg/embed"
)

var (
	exportUser    string
	exportDir     string
	exportWorkers int
	exportRetries int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every worksheet of a user as an embeddable HTML file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportUser, "user", "u", domain.PublicUser, "Owner of the worksheets")
	exportCmd.Flags().StringVarP(&exportDir, "output", "o", "./export", "Output directory")
	exportCmd.Flags().IntVarP(&exportWorkers, "workers", "w", 4, "Worksheets rendered concurrently")
	exportCmd.Flags().IntVar(&exportRetries, "retries", 3, "Retries per worksheet on store errors")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	n, err := exportWorksheets(ctx, repos.Worksheets, exportUser, exportDir, exportWorkers, exportRetries)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d worksheets to %s\n", n, exportDir)
	return nil
}

type exportedFile struct {
	id   string
	path string
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// exportWorksheets renders the saved state of each of the user's worksheets
// into outDir and returns how many files were written.
func exportWorksheets(ctx context.Context, repo domain.WorksheetRepository, userID, outDir string, workers, retries int) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recs, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list worksheets: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	ids := make([]interface{}, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	store := service.NewWorksheetStore(repo)

	src := dataflow.From(ctx, ids...)
	written := dataflow.Map(ctx, src, func(msg interface{}) (interface{}, error) {
		id := msg.(string)
		ws, err := store.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("worksheet %s: %w", id, err)
		}
		preview := service.RenderWorksheet(ws)
		snippet := embed.ToEmbed(preview.Markup, id, "", embed.Options{}).HTML

		name := unsafeFileChars.ReplaceAllString(ws.Name, "_")
		path := filepath.Join(outDir, fmt.Sprintf("%s-%s.html", name, id))
		if err := os.WriteFile(path, []byte(snippet+"\n"), 0o644); err != nil {
			return nil, fmt.Errorf("worksheet %s: %w", id, err)
		}
		return exportedFile{id: id, path: path}, nil
	},
		dataflow.WithWorkers(workers),
		dataflow.WithRetry(retries, dataflow.ExponentialBackoff(100*time.Millisecond)),
		dataflow.WithErrorHandler(func(err error) bool {
			logger.ErrorLog(ctx, "export skipped: %v", err)
			return true
		}))

	count := 0
	err = dataflow.ForEach(ctx, written, func(msg interface{}) error {
		f := msg.(exportedFile)
		logger.InfoLog(ctx, "exported worksheet %s to %s", f.id, f.path)
		count++
		return nil
	})
	return count, err
}
