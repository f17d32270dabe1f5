package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nomos11/qupulse/pkg/stores"
)

func newUploadCommand() *cobra.Command {
	var (
		device   string
		params   []string
		channels string
		markers  string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "upload <name> <template.yaml>",
		Short: "Compile a template and upload it to a device",
		Long: `Compile a pulse template into a device program.

The template is sequenced under the given parameter bindings, sampled
against the device configuration from the setup file, and recorded as
resident in the template database. A taken program name is rejected
unless --force replaces it.`,
		Example: `  # Upload a ramp as program "rabi" onto awg1
  qupulsectl -c setup.yaml upload --device awg1 --param t_hold=20 rabi ./ramp.yaml

  # Replace a resident program
  qupulsectl -c setup.yaml upload --device awg1 --force rabi ./ramp.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, templatePath := args[0], args[1]
			ctx := cmd.Context()

			cfg, err := loadSetup()
			if err != nil {
				return err
			}
			deviceCfg, err := findDevice(cfg, device)
			if err != nil {
				return err
			}

			template, err := loadTemplate(templatePath)
			if err != nil {
				return err
			}
			values, err := parseParameters(params)
			if err != nil {
				return err
			}
			loop, err := buildLoop(template, values)
			if err != nil {
				return err
			}

			channelSlots, err := slotAssignment(channels, programChannels(loop), deviceCfg.Channels)
			if err != nil {
				return err
			}
			markerSlots, err := slotAssignment(markers, nil, deviceCfg.Markers)
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			awg := newDeviceAWG(deviceCfg)
			if err := awg.Upload(name, loop, channelSlots, markerSlots, nil, force); err != nil {
				return err
			}
			used, total := awg.MemoryUsage()

			if !force {
				if _, err := store.GetResidentProgram(ctx, device, name); err == nil {
					return fmt.Errorf("program %q is already resident on device %q, use --force", name, device)
				}
			}
			resident := &stores.ResidentProgram{
				Device:   device,
				Name:     name,
				Channels: slotStrings(channelSlots),
				Markers:  slotStrings(markerSlots),
			}
			if err := store.SaveResidentProgram(ctx, resident); err != nil {
				return err
			}
			detail := fmt.Sprintf("%d of %d samples of waveform memory", used, total)
			event := &stores.DeviceEvent{
				Device:  device,
				Program: name,
				Action:  stores.DeviceActionUpload,
				Detail:  &detail,
			}
			if err := store.AppendDeviceEvent(ctx, event); err != nil {
				return err
			}

			log.Info().
				Str("device", device).
				Str("program", name).
				Str("handle", resident.Handle).
				Msg("Program uploaded")

			fmt.Printf("Uploaded %q to %s (handle %s, %s)\n", name, device, resident.Handle, detail)
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "", "target device identifier")
	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter binding name=value (repeatable)")
	cmd.Flags().StringVar(&channels, "channels", "", "comma separated channel slot assignment")
	cmd.Flags().StringVar(&markers, "markers", "", "comma separated marker slot assignment")
	cmd.Flags().BoolVar(&force, "force", false, "replace a resident program under the same name")
	_ = cmd.MarkFlagRequired("device")

	return cmd
}
