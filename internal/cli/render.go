package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/model"
	"github.com/existflow/grantline/internal/timeline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the current board's timeline as SVG",
	Long: `Render the current board's timeline to an SVG file.

Examples:
  grantline render -o timeline.svg
  grantline render --zoom yearly > timeline.svg`,
	RunE: runRender,
}

var (
	renderZoom   string
	renderOutput string
	renderDate   string
)

func init() {
	renderCmd.Flags().StringVarP(&renderZoom, "zoom", "z", "", "Zoom mode (weekly, monthly, 6months, yearly)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (defaults to stdout)")
	renderCmd.Flags().StringVar(&renderDate, "today", "", "Draw the today line at this date instead of now")
}

func runRender(cmd *cobra.Command, args []string) error {
	zoom := cfg.Zoom()
	if renderZoom != "" {
		z, err := timeline.ParseZoomMode(renderZoom)
		if err != nil {
			return err
		}
		zoom = z
	}
	now := time.Now()
	if renderDate != "" {
		d, err := timeline.ParseDate(renderDate)
		if err != nil {
			return err
		}
		now = d
	}

	var out io.Writer = cmd.OutOrStdout()
	if renderOutput == "" {
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return fmt.Errorf("refusing to write SVG to a terminal; use -o or redirect stdout")
		}
	}

	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	b, err := currentBoard(cmd.Context(), live)
	if err != nil {
		return err
	}
	grants, err := live.ListGrants(cmd.Context(), b.ID)
	if err != nil {
		return err
	}
	milestones := make(map[string][]model.Milestone, len(grants))
	for _, g := range grants {
		if milestones[g.ID], err = live.ListMilestones(cmd.Context(), g.ID); err != nil {
			return err
		}
	}

	frame := timeline.NewRenderer(cfg.Style()).Render(timeline.RenderInput{
		Items:      grants,
		Milestones: milestones,
		Mode:       zoom,
		ViewerID:   cfg.ViewerID,
		Palette:    timeline.NewPalette(cfg.Dark),
		Now:        now,
	})

	if renderOutput != "" {
		f, err := os.Create(renderOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", renderOutput, err)
		}
		defer f.Close()
		out = f
	}
	if err := frame.WriteSVG(out); err != nil {
		return fmt.Errorf("failed to write SVG: %w", err)
	}

	logger.Info("Rendered timeline",
		logger.F("board_id", b.ID),
		logger.F("zoom", zoom.String()),
		logger.F("grants", len(grants)))
	if renderOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s (%s, %d grants)\n", renderOutput, zoom, len(grants))
	}
	return nil
}
