package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/campusmatch/campusmatch/internal/registration"
	"github.com/campusmatch/campusmatch/internal/tui"
	"github.com/campusmatch/campusmatch/pkg/state"
)

var registerFlags struct {
	flow   string
	device string
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Fill in the registration wizard in the terminal",
		Long: `Walk through the registration flows in the terminal.

Completed screens are saved under --device exactly as the site saves them,
so a device id from a browser cookie resumes that browser's answers.`,
		RunE: runRegister,
	}
	cmd.Flags().StringVar(&registerFlags.flow, "flow", "registration", "Flow to start with: registration, academic, profile")
	cmd.Flags().StringVar(&registerFlags.device, "device", "", "Device id the answers are saved under (default: a new id)")
	return cmd
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flow, err := registration.FlowByName(registerFlags.flow)
	if err != nil {
		return err
	}
	device := registerFlags.device
	if device == "" {
		device = uuid.NewString()
	}

	ctx := cmd.Context()
	store, answers, err := openAnswers(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	final, err := tui.Run(ctx, tui.Options{
		Flows:   registration.Flows(),
		Start:   flow.Path,
		Device:  device,
		Answers: answers,
	}, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if final.Done() {
		fmt.Fprintf(out, "Answers saved for device %s\n", device)
	}
	if cfg.Store.Backend == state.BackendMemory {
		fmt.Fprintln(out, "Note: the memory store is gone once this command exits; use --store sqlite to keep answers.")
	}
	return nil
}
