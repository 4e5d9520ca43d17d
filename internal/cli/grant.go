package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/existflow/grantline/internal/db"
	"github.com/existflow/grantline/internal/store"
	"github.com/existflow/grantline/internal/timeline"
	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Manage grants on the current board",
	Long: `Add, list, edit and delete grants on the current board.

Examples:
  grantline grant add "Climate study" --start 2026-01-01 --end 2026-06-30
  grantline grant add "Library fund" --start 2026-02-01 --end 2026-12-31 --assign alice --assign bob
  grantline grant progress <id> 2026-03-15
  grantline grant import grants.csv`,
}

var grantAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a grant",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGrantAdd,
}

var grantListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List grants",
	RunE:    runGrantList,
}

var grantUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change a grant's name, dates, colour or assignees",
	Args:  cobra.ExactArgs(1),
	RunE:  runGrantUpdate,
}

var grantProgressCmd = &cobra.Command{
	Use:   "progress [id] [date]",
	Short: "Move a grant's progress marker",
	Args:  cobra.ExactArgs(2),
	RunE:  runGrantProgress,
}

var grantDeleteCmd = &cobra.Command{
	Use:     "delete [id]",
	Aliases: []string{"rm"},
	Short:   "Delete a grant and its milestones",
	Args:    cobra.ExactArgs(1),
	RunE:    runGrantDelete,
}

var grantImportCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Add grants from a CSV file",
	Long: `Add one grant per CSV row to the current board.

The header must name the columns; name, start and end are required.
Optional columns: progress, description, color, assigned (users separated
by semicolons).`,
	Args: cobra.ExactArgs(1),
	RunE: runGrantImport,
}

var (
	grantStart       string
	grantEnd         string
	grantProgress    string
	grantDescription string
	grantColor       string
	grantAssign      []string
)

func init() {
	for _, c := range []*cobra.Command{grantAddCmd, grantUpdateCmd} {
		c.Flags().StringVar(&grantStart, "start", "", "Start date (e.g. 2026-01-15)")
		c.Flags().StringVar(&grantEnd, "end", "", "End date")
		c.Flags().StringVar(&grantProgress, "progress", "", "Progress date (defaults to the start date)")
		c.Flags().StringVarP(&grantDescription, "description", "d", "", "Description")
		c.Flags().StringVar(&grantColor, "color", "", "Bar colour (defaults to the palette)")
		c.Flags().StringSliceVarP(&grantAssign, "assign", "a", nil, "Assigned user (repeatable, defaults to you)")
	}
	grantUpdateCmd.Flags().String("name", "", "New name")
	_ = grantAddCmd.MarkFlagRequired("start")
	_ = grantAddCmd.MarkFlagRequired("end")

	grantCmd.AddCommand(grantAddCmd)
	grantCmd.AddCommand(grantListCmd)
	grantCmd.AddCommand(grantUpdateCmd)
	grantCmd.AddCommand(grantProgressCmd)
	grantCmd.AddCommand(grantDeleteCmd)
	grantCmd.AddCommand(grantImportCmd)
}

// grantFlags builds an input from the add/update flags over base
func grantFlags(cmd *cobra.Command, base db.GrantInput) (db.GrantInput, error) {
	in := base
	var err error
	if cmd.Flags().Changed("start") {
		if in.StartDate, err = timeline.ParseDate(grantStart); err != nil {
			return in, err
		}
	}
	if cmd.Flags().Changed("end") {
		if in.EndDate, err = timeline.ParseDate(grantEnd); err != nil {
			return in, err
		}
	}
	if cmd.Flags().Changed("progress") {
		p, err := timeline.ParseDate(grantProgress)
		if err != nil {
			return in, err
		}
		in.ProgressDate = &p
	}
	if cmd.Flags().Changed("description") {
		in.Description = grantDescription
	}
	if cmd.Flags().Changed("color") {
		in.Color = grantColor
	}
	if cmd.Flags().Changed("assign") {
		in.AssignedUsers = grantAssign
	}
	return in, nil
}

func runGrantAdd(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	b, err := currentBoard(cmd.Context(), live)
	if err != nil {
		return err
	}
	in, err := grantFlags(cmd, db.GrantInput{
		BoardID:   b.ID,
		Name:      strings.Join(args, " "),
		CreatedBy: cfg.ViewerID,
	})
	if err != nil {
		return err
	}

	g, err := live.CreateGrant(cmd.Context(), in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added grant: %s (%s to %s) [%s]\n",
		g.Name, timeline.FormatDate(g.StartDate), timeline.FormatDate(g.EndDate), g.ID)
	return nil
}

func runGrantList(cmd *cobra.Command, args []string) error {
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
	out := cmd.OutOrStdout()
	if len(grants) == 0 {
		fmt.Fprintf(out, "No grants on %s\n", b.Name)
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tNAME\tSTART\tEND\tPROGRESS\tASSIGNED\tID")
	for _, g := range grants {
		status := " "
		switch {
		case g.IsCompleted(now):
			status = "✓"
		case g.IsActive(now):
			status = "●"
		}
		if !store.CanEdit(g, cfg.ViewerID) {
			status += "🔒"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", status, g.Name,
			timeline.FormatDate(g.StartDate), timeline.FormatDate(g.EndDate), timeline.FormatDate(g.ProgressDate),
			strings.Join(g.AssignedUsers, ","), g.ID)
	}
	return w.Flush()
}

func runGrantUpdate(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	g, err := editableGrant(cmd.Context(), live, args[0])
	if err != nil {
		return err
	}
	in, err := grantFlags(cmd, db.GrantInput{
		Name:          g.Name,
		Description:   g.Description,
		StartDate:     g.StartDate,
		EndDate:       g.EndDate,
		Color:         g.Color,
		AssignedUsers: g.AssignedUsers,
	})
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		in.Name = name
	}

	updated, err := live.UpdateGrant(cmd.Context(), g.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated grant: %s (%s to %s)\n",
		updated.Name, timeline.FormatDate(updated.StartDate), timeline.FormatDate(updated.EndDate))
	return nil
}

func runGrantProgress(cmd *cobra.Command, args []string) error {
	date, err := timeline.ParseDate(args[1])
	if err != nil {
		return err
	}
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	g, err := editableGrant(cmd.Context(), live, args[0])
	if err != nil {
		return err
	}
	if err := live.SetProgressDate(cmd.Context(), g.ID, date); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s progress: %s\n", g.Name, timeline.FormatDate(date))
	return nil
}

func runGrantDelete(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	g, err := editableGrant(cmd.Context(), live, args[0])
	if err != nil {
		return err
	}
	if err := live.DeleteGrant(cmd.Context(), g.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted: %s\n", g.Name)
	return nil
}

func runGrantImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("error opening CSV file: %w", err)
	}
	defer f.Close()

	grants, err := parseGrantCSV(f)
	if err != nil {
		return err
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
	for i := range grants {
		grants[i].BoardID = b.ID
		grants[i].CreatedBy = cfg.ViewerID
		if _, err := live.CreateGrant(cmd.Context(), grants[i]); err != nil {
			return fmt.Errorf("failed to import %q: %w", grants[i].Name, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d grants into %s\n", len(grants), b.Name)
	return nil
}
