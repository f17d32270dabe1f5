package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nomos11/qupulse/pkg/stores"
)

func newProgramsCommand() *cobra.Command {
	var (
		device  string
		history bool
	)

	cmd := &cobra.Command{
		Use:   "programs",
		Short: "List resident programs",
		Long: `List the programs recorded as resident in the template database,
optionally restricted to one device. With --history the device event log
is shown instead.`,
		Example: `  # All resident programs
  qupulsectl -c setup.yaml programs

  # Uploads, arms and removals of one device
  qupulsectl -c setup.yaml programs --device awg1 --history`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadSetup()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if history {
				return printHistory(cmd, store, device)
			}

			programs, err := store.ListResidentPrograms(ctx, device)
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(programs)
			}

			if len(programs) == 0 {
				fmt.Println("No resident programs")
				return nil
			}
			for _, prog := range programs {
				fmt.Printf("%s  %s  handle=%s  channels=[%s]  uploaded=%s\n",
					prog.Device, prog.Name, prog.Handle,
					strings.Join(prog.Channels, ","),
					prog.UploadedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "restrict to one device")
	cmd.Flags().BoolVar(&history, "history", false, "show the device event log")

	return cmd
}

func printHistory(cmd *cobra.Command, store *stores.SQLiteStore, device string) error {
	events, err := store.ListDeviceEvents(cmd.Context(), device, 100, 0)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(events)
	}

	if len(events) == 0 {
		fmt.Println("No device events")
		return nil
	}
	for _, event := range events {
		line := fmt.Sprintf("%s  %s  %s  %s",
			event.CreatedAt.Format(time.RFC3339), event.Device, event.Action, event.Program)
		if event.Detail != nil {
			line += "  (" + *event.Detail + ")"
		}
		fmt.Println(line)
	}
	return nil
}
