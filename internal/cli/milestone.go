package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/grantline/internal/db"
	"github.com/existflow/grantline/internal/timeline"
	"github.com/spf13/cobra"
)

var milestoneCmd = &cobra.Command{
	Use:     "milestone",
	Aliases: []string{"ms"},
	Short:   "Manage a grant's milestones",
	Long: `Milestones are dated sub-targets drawn as triangles on a grant's row.

Examples:
  grantline milestone add <grant-id> 2026-03-31 "Interim report"
  grantline milestone ls <grant-id>
  grantline milestone rm <milestone-id>`,
}

var milestoneAddCmd = &cobra.Command{
	Use:   "add [grant-id] [date] [label]",
	Short: "Add a milestone",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMilestoneAdd,
}

var milestoneListCmd = &cobra.Command{
	Use:     "ls [grant-id]",
	Aliases: []string{"list"},
	Short:   "List a grant's milestones",
	Args:    cobra.ExactArgs(1),
	RunE:    runMilestoneList,
}

var milestoneDeleteCmd = &cobra.Command{
	Use:     "delete [milestone-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a milestone",
	Args:    cobra.ExactArgs(1),
	RunE:    runMilestoneDelete,
}

var milestoneNumber int

func init() {
	milestoneAddCmd.Flags().IntVarP(&milestoneNumber, "number", "n", 0, "Milestone number (defaults to the next one)")

	milestoneCmd.AddCommand(milestoneAddCmd)
	milestoneCmd.AddCommand(milestoneListCmd)
	milestoneCmd.AddCommand(milestoneDeleteCmd)
}

func runMilestoneAdd(cmd *cobra.Command, args []string) error {
	target, err := timeline.ParseDate(args[1])
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
	m, err := live.AddMilestone(cmd.Context(), g.ID, db.MilestoneInput{
		Number:     milestoneNumber,
		TargetDate: target,
		Label:      strings.Join(args[2:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Milestone %d on %s: %s\n", m.Number, g.Name, timeline.FormatDate(m.TargetDate))
	return nil
}

func runMilestoneList(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	g, err := live.GetGrant(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if _, err := resolveBoard(cmd.Context(), live.DB, g.BoardID); err != nil {
		return err
	}
	ms, err := live.ListMilestones(cmd.Context(), g.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ms) == 0 {
		fmt.Fprintf(out, "No milestones on %s\n", g.Name)
		return nil
	}
	fmt.Fprintf(out, "%s\n", g.Name)
	for _, m := range ms {
		fmt.Fprintf(out, "  ▲ %d  %-14s %s  [%s]\n", m.Number, timeline.FormatDate(m.TargetDate), m.Label, m.ID)
	}
	return nil
}

func runMilestoneDelete(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	m, err := live.GetMilestone(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if _, err := editableGrant(cmd.Context(), live, m.GrantID); err != nil {
		return err
	}
	if _, err := live.DeleteMilestone(cmd.Context(), m.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted milestone %d\n", m.Number)
	return nil
}
