package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/grantline/internal/config"
	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/tui"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	dbDriver   string
	dbDSN      string

	boardRef string
	viewer   string

	// cfg is loaded before every command runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "grantline",
	Short: "Grantline - grant timelines in the terminal",
	Long: `Grantline draws the grants of a board on a zoomable timeline and lets
assigned users drag each grant's progress marker.

Run 'grantline' without arguments to open the current board in the TUI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.Err(err))
			loaded = config.DefaultConfig()
		}
		cfg = loaded

		// Flags persist into the config file
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("db-driver") {
			cfg.DBDriver = dbDriver
			configChanged = true
		}
		if cmd.Flags().Changed("db-dsn") {
			cfg.DBDSN = dbDSN
			configChanged = true
		}
		if configChanged {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.Err(err))
			}
		}

		// Board and viewer overrides apply to this run only
		if cmd.Flags().Changed("board") {
			cfg.CurrentBoard = boardRef
		}
		if cmd.Flags().Changed("viewer") {
			cfg.ViewerID = viewer
		}

		if err := logger.Init(cfg.LoggerConfig()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("Grantline started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		live, closeLive, err := openLive(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeLive()

		b, err := currentBoard(cmd.Context(), live)
		if err != nil {
			return err
		}

		logger.Info("Launching TUI", logger.F("board_id", b.ID))
		m := tui.NewModel(tui.Options{
			Store:         live,
			Board:         *b,
			ViewerID:      cfg.ViewerID,
			Zoom:          cfg.Zoom(),
			Style:         cfg.Style(),
			Dark:          cfg.Dark,
			ConfirmDelete: cfg.ConfirmDelete,
		})
		defer m.Close()

		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.Err(err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("Grantline exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.StringVar(&logFile, "log-file", "", "Path to log file")
	pf.BoolVar(&logConsole, "log-console", false, "Enable console logging")
	pf.StringVar(&dbDriver, "db-driver", "", "Database driver (sqlite, postgres)")
	pf.StringVar(&dbDSN, "db-dsn", "", "Database path or connection string")
	pf.StringVarP(&boardRef, "board", "b", "", "Board id or name (defaults to the current board)")
	pf.StringVar(&viewer, "viewer", "", "Viewer id used for edit permissions")

	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(milestoneCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}
