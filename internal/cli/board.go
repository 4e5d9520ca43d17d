package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/existflow/grantline/internal/model"
	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage boards",
	Long: `Create, list and select boards.

The current board is opened by 'grantline' and used by the grant and
milestone commands unless --board is given.

Examples:
  grantline board new "Research grants"
  grantline board new "Shared pipeline" --shared
  grantline board ls
  grantline board use "Research grants"
  grantline board stats`,
	RunE: runBoardShow,
}

var boardNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a board and make it current",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardNew,
}

var boardListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List the boards you can see",
	RunE:    runBoardList,
}

var boardUseCmd = &cobra.Command{
	Use:   "use [board]",
	Short: "Set the current board",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardUse,
}

var boardDeleteCmd = &cobra.Command{
	Use:     "delete [board]",
	Aliases: []string{"rm"},
	Short:   "Delete a board you own with all of its grants",
	Args:    cobra.ExactArgs(1),
	RunE:    runBoardDelete,
}

var boardStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count active and completed grants on the current board",
	RunE:  runBoardStats,
}

var boardMemberCmd = &cobra.Command{
	Use:   "member [add|rm] [user]",
	Short: "Give or revoke access to a private board",
	Args:  cobra.ExactArgs(2),
	RunE:  runBoardMember,
}

var boardShared bool

func init() {
	boardNewCmd.Flags().BoolVar(&boardShared, "shared", false, "Let every viewer see the board")

	boardCmd.AddCommand(boardNewCmd)
	boardCmd.AddCommand(boardListCmd)
	boardCmd.AddCommand(boardUseCmd)
	boardCmd.AddCommand(boardDeleteCmd)
	boardCmd.AddCommand(boardStatsCmd)
	boardCmd.AddCommand(boardMemberCmd)
}

func runBoardShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if cfg.CurrentBoard == "" {
		fmt.Fprintln(out, "No current board. Pick one with 'grantline board use'")
		return nil
	}

	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	b, err := currentBoard(cmd.Context(), live)
	if err != nil {
		fmt.Fprintf(out, "⚠️  Current board is '%s' but it was not found\n", cfg.CurrentBoard)
		return nil
	}
	fmt.Fprintf(out, "📋 Current board: %s (%s)\n", b.Name, b.ID)
	return nil
}

func runBoardNew(cmd *cobra.Command, args []string) error {
	if cfg.ViewerID == "" {
		return fmt.Errorf("viewer id is not set; run 'grantline config set viewer_id <you>'")
	}
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	visibility := model.VisibilityPrivate
	if boardShared {
		visibility = model.VisibilityShared
	}
	b, err := live.CreateBoard(cmd.Context(), args[0], visibility, cfg.ViewerID)
	if err != nil {
		return err
	}

	cfg.CurrentBoard = b.ID
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save current board: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created board %s (%s)\n", b.Name, b.ID)
	return nil
}

func runBoardList(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	boards, err := live.ListBoards(cmd.Context(), cfg.ViewerID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(boards) == 0 {
		fmt.Fprintln(out, "No boards yet. Create one with 'grantline board new'")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tNAME\tVISIBILITY\tOWNER\tID")
	for _, b := range boards {
		marker := " "
		if b.ID == cfg.CurrentBoard || b.Name == cfg.CurrentBoard {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, b.Name, b.Visibility, b.OwnerID, b.ID)
	}
	return w.Flush()
}

func runBoardUse(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	b, err := resolveBoard(cmd.Context(), live.DB, args[0])
	if err != nil {
		return err
	}
	cfg.CurrentBoard = b.ID
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save current board: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Current board: %s\n", b.Name)
	return nil
}

func runBoardDelete(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	b, err := resolveBoard(cmd.Context(), live.DB, args[0])
	if err != nil {
		return err
	}
	if b.OwnerID != cfg.ViewerID {
		return fmt.Errorf("only %s can delete board %s", b.OwnerID, b.Name)
	}
	if err := live.DeleteBoard(cmd.Context(), b.ID); err != nil {
		return err
	}

	if cfg.CurrentBoard == b.ID || cfg.CurrentBoard == b.Name {
		cfg.CurrentBoard = ""
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to clear current board: %w", err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted board %s\n", b.Name)
	return nil
}

func runBoardStats(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	b, err := currentBoard(cmd.Context(), live)
	if err != nil {
		return err
	}
	stats, err := live.BoardStats(cmd.Context(), b.ID, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d grants, %d active, %d completed\n",
		b.Name, stats.Total, stats.Active, stats.Completed)
	return nil
}

func runBoardMember(cmd *cobra.Command, args []string) error {
	live, closeLive, err := openLive(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeLive()

	b, err := currentBoard(cmd.Context(), live)
	if err != nil {
		return err
	}
	if b.OwnerID != cfg.ViewerID {
		return fmt.Errorf("only %s can change members of %s", b.OwnerID, b.Name)
	}

	action, user := args[0], args[1]
	switch action {
	case "add":
		err = live.AddBoardMember(cmd.Context(), b.ID, user)
	case "rm", "remove":
		err = live.RemoveBoardMember(cmd.Context(), b.ID, user)
	default:
		return fmt.Errorf("unknown member action %q: want add or rm", action)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Members of %s updated\n", b.Name)
	return nil
}
