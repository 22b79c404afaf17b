package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/locvowork/pawsheets/pkg/cards"
	"github.com/locvowork/pawsheets/pkg/cardstyle"
	"github.com/locvowork/pawsheets/pkg/embed"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

type renderOptions struct {
	stylesFile string
	size       string
	theme      string
	snippet    bool
	output     string
}

var renderOpts renderOptions

var renderCmd = &cobra.Command{
	Use:   "render <workbook.xlsx>",
	Short: "Render the cards of an xlsx workbook as static HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOpts.stylesFile, "styles", "s", "", "JSON style document to apply")
	renderCmd.Flags().StringVar(&renderOpts.size, "size", "", "Size preset (small, medium, large)")
	renderCmd.Flags().StringVar(&renderOpts.theme, "theme", "", "Theme preset")
	renderCmd.Flags().BoolVar(&renderOpts.snippet, "snippet", false, "Append the card height equalisation script")
	renderCmd.Flags().StringVarP(&renderOpts.output, "output", "o", "", "Output file (default stdout)")
}

func runRender(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer in.Close()

	cfg, err := renderStyles(renderOpts)
	if err != nil {
		return err
	}
	html, err := renderWorkbook(in, cfg, renderOpts.snippet)
	if err != nil {
		return err
	}

	if renderOpts.output == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), html+"\n")
		return err
	}
	return os.WriteFile(renderOpts.output, []byte(html+"\n"), 0o644)
}

func renderStyles(opts renderOptions) (cardstyle.Config, error) {
	cfg := cardstyle.Default()
	if opts.stylesFile != "" {
		raw, err := os.ReadFile(opts.stylesFile)
		if err != nil {
			return cfg, fmt.Errorf("failed to read styles: %w", err)
		}
		if cfg, err = cardstyle.FromJSON(raw); err != nil {
			return cfg, err
		}
	}
	presets := cardstyle.DefaultPresets()
	var err error
	if opts.size != "" {
		if cfg, err = presets.ApplySize(cfg, opts.size); err != nil {
			return cfg, err
		}
	}
	if opts.theme != "" {
		if cfg, err = presets.ApplyTheme(cfg, opts.theme); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func renderWorkbook(r io.Reader, cfg cardstyle.Config, snippet bool) (string, error) {
	ws, err := sheet.ReadXLSX(r)
	if err != nil {
		return "", err
	}
	_, markup := cards.Render(cards.ProjectWorksheet(ws), cfg)
	if !snippet {
		return markup, nil
	}
	return embed.ToEmbed(markup, "", "", embed.Options{}).HTML, nil
}
