package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nomos11/qupulse/pkg/config"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <setup.yaml>",
		Short: "Validate a setup file",
		Long: `Validate a setup file against the device and telemetry schema.

This command checks:
  - YAML syntax and unknown fields
  - Required device fields and value ranges
  - Per-channel amplitude and offset coverage`,
		Example: `  # Validate a setup file
  qupulsectl validate ./setup.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			log.Info().Str("path", path).Msg("Validating setup")

			cfg, err := config.NewLoader().Load(path)
			if err != nil {
				return err
			}

			fmt.Printf("Setup is valid: %d device(s)\n", len(cfg.Devices))
			for _, device := range cfg.Devices {
				fmt.Printf("  %s: %d channel(s), %d marker(s), %.4g samples/ns, %d samples of memory\n",
					device.Identifier, device.Channels, device.Markers,
					device.SampleRate, device.MemorySamples)
			}

			return nil
		},
	}

	return cmd
}
