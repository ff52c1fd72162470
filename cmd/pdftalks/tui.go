package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ganot/pdftalks/internal/tui"
	"github.com/spf13/cobra"
)

var showTimestamps bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal interface",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&showTimestamps, "timestamps", false, "Show message timestamps")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The interface owns the terminal, so logs only go to the file.
	logger, closeLog, err := newLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	ctrl, err := newController(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.New(ctx, ctrl, tui.Options{
		Token:          cfg.Auth.IDToken,
		ShowTimestamps: showTimestamps,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, runErr := p.Run()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	ctrl.Close(flushCtx)

	if runErr != nil {
		return fmt.Errorf("running TUI: %w", runErr)
	}
	return nil
}
