package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nomos11/qupulse/pkg/stores"
)

func newArmCommand() *cobra.Command {
	var (
		device string
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "arm <name>",
		Short: "Arm a resident program",
		Long: `Arm a program recorded as resident on a device, so the next trigger
starts it. With --remove the program is dropped from the resident table
instead.`,
		Example: `  # Arm program "rabi" on awg1
  qupulsectl -c setup.yaml arm --device awg1 rabi

  # Drop it from the resident table
  qupulsectl -c setup.yaml arm --device awg1 --remove rabi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx := cmd.Context()

			cfg, err := loadSetup()
			if err != nil {
				return err
			}
			if _, err := findDevice(cfg, device); err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.GetResidentProgram(ctx, device, name); err != nil {
				return err
			}

			action := stores.DeviceActionArm
			if remove {
				action = stores.DeviceActionRemove
				if err := store.DeleteResidentProgram(ctx, device, name); err != nil {
					return err
				}
			}
			event := &stores.DeviceEvent{
				Device:  device,
				Program: name,
				Action:  action,
			}
			if err := store.AppendDeviceEvent(ctx, event); err != nil {
				return err
			}

			log.Info().
				Str("device", device).
				Str("program", name).
				Str("action", string(action)).
				Msg("Device updated")

			if remove {
				fmt.Printf("Removed %q from %s\n", name, device)
			} else {
				fmt.Printf("Armed %q on %s\n", name, device)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "target device identifier")
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the program instead of arming it")
	_ = cmd.MarkFlagRequired("device")

	return cmd
}
