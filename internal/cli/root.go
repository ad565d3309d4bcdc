// Package cli implements the eventcat command-line interface: the
// interactive browser by default, plus headless import/export
// subcommands for scripting.
package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"eventcat/internal/appstate"
	"eventcat/internal/config"
	"eventcat/internal/store"
	"eventcat/internal/ui"
)

const (
	exitSuccess  = 0
	exitUserErr  = 1
	exitSysError = 2
)

type rootFlags struct {
	configPath string
	author     string
	memory     bool
}

var flags rootFlags

// NewRootCmd creates the top-level "eventcat" command with all
// subcommands registered
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "eventcat",
		Short:        "Browse and edit event catalogues",
		Long:         "Eventcat is a terminal browser for event catalogues with\nfull undo history, trash and JSON import/export.",
		SilenceUsage: true,
		RunE:         runBrowser,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "configuration file (default: XDG config dir)")
	root.PersistentFlags().StringVar(&flags.author, "author", "", "author recorded on new entities (default: $USER)")
	root.PersistentFlags().BoolVar(&flags.memory, "memory", false, "use an in-memory store, discarding all changes on exit")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newExportCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(exitUserErr)
	}
}

// loadConfig reads the configuration, honoring the --config override
func loadConfig() (*config.Config, error) {
	var svc config.Service
	if flags.configPath != "" {
		svc = config.NewServiceAt(flags.configPath)
	} else {
		svc = config.NewService()
	}
	cfg, err := svc.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openStore builds the entity store the config names
func openStore(cfg *config.Config) (store.Store, error) {
	if flags.memory || cfg.Backend == "memory" {
		return store.NewMemoryStore(), nil
	}
	st, err := store.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

func author(cfg *config.Config) string {
	if flags.author != "" {
		return flags.author
	}
	if cfg.Author != "" {
		return cfg.Author
	}
	return os.Getenv("USER")
}

func runBrowser(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	state := appstate.New(st, author(cfg))
	model := ui.NewModel(state, cfg)

	p := tea.NewProgram(model, tea.WithAltScreen())
	model.SetProgram(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
