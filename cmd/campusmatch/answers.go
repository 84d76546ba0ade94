package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/campusmatch/campusmatch/pkg/state"
)

var answersFlags struct {
	device string
	key    string
}

func newAnswersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answers",
		Short: "Inspect and clear saved registration answers",
	}
	cmd.PersistentFlags().StringVar(&answersFlags.device, "device", "", "Device id")
	cmd.PersistentFlags().StringVar(&answersFlags.key, "key", "", "Only this storage key (e.g. registrationData)")

	cmd.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List devices with saved answers",
		RunE:  runAnswersDevices,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved answers of a device as YAML",
		RunE:  runAnswersShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the saved answers of a device",
		RunE:  runAnswersClear,
	})
	return cmd
}

func withAnswers(cmd *cobra.Command, fn func(*state.AnswerStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, answers, err := openAnswers(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(answers)
}

func requireDevice() error {
	if answersFlags.device == "" {
		return errors.New("--device is required")
	}
	return nil
}

func runAnswersDevices(cmd *cobra.Command, args []string) error {
	return withAnswers(cmd, func(answers *state.AnswerStore) error {
		devices, err := answers.Devices(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(devices) == 0 {
			fmt.Fprintln(out, "No saved answers")
			return nil
		}
		for _, d := range devices {
			fmt.Fprintln(out, d)
		}
		return nil
	})
}

func runAnswersShow(cmd *cobra.Command, args []string) error {
	if err := requireDevice(); err != nil {
		return err
	}
	return withAnswers(cmd, func(answers *state.AnswerStore) error {
		ctx := cmd.Context()
		device := answersFlags.device

		keys := []string{answersFlags.key}
		if answersFlags.key == "" {
			var err error
			if keys, err = answers.List(ctx, device); err != nil {
				return err
			}
		}

		saved := make(map[string]map[string]any, len(keys))
		for _, k := range keys {
			data, err := answers.Load(ctx, device, k)
			if errors.Is(err, state.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("loading %s: %w", k, err)
			}
			saved[k] = data
		}

		out := cmd.OutOrStdout()
		if len(saved) == 0 {
			fmt.Fprintln(out, "No saved answers")
			return nil
		}
		data, err := yaml.Marshal(saved)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	})
}

func runAnswersClear(cmd *cobra.Command, args []string) error {
	if err := requireDevice(); err != nil {
		return err
	}
	return withAnswers(cmd, func(answers *state.AnswerStore) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		if answersFlags.key != "" {
			if err := answers.Delete(ctx, answersFlags.device, answersFlags.key); err != nil {
				return err
			}
			fmt.Fprintf(out, "Cleared %s\n", answersFlags.key)
			return nil
		}
		n, err := answers.Clear(ctx, answersFlags.device)
		fmt.Fprintf(out, "Cleared %d saved screens\n", n)
		return err
	})
}
