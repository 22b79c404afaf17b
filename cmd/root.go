package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pawsheets",
	Short: "Spreadsheet-driven card layouts for embedding in any web page",
	Long: `Pawsheets turns a worksheet (one row per item, first column an image)
into a grid of styled cards, and serves the cards as embeddable HTML.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(feedbackCmd)
}
