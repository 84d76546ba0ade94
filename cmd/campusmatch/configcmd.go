package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusmatch/campusmatch/internal/config"
)

var configFlags struct {
	project bool
	force   bool
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or print the configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Long: `Write a config file with the default settings.

By default, creates a global config at ~/.config/campusmatch/campusmatch.yml.
Use --project to create ./campusmatch.yml instead.`,
		RunE: runConfigInit,
	}
	initCmd.Flags().BoolVarP(&configFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	initCmd.Flags().BoolVarP(&configFlags.force, "force", "f", false, "Overwrite existing config file")

	cmd.AddCommand(initCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE:  runConfigShow,
	})
	return cmd
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.GlobalPath()
	if configFlags.project {
		path = config.ProjectPath()
	}
	if err := config.Write(path, config.Default(), configFlags.force); err != nil {
		return fmt.Errorf("%w\n\nUse --force to overwrite", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
