package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nomos11/qupulse/pkg/hardware"
	"github.com/Nomos11/qupulse/pkg/program"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// sampledOutput is the JSON shape of a sampled program.
type sampledOutput struct {
	SampleRate float64          `json:"sample_rate"`
	Channels   []string         `json:"channels"`
	Segments   []sampledSegment `json:"segments"`
}

type sampledSegment struct {
	Index    int                  `json:"index"`
	Length   int                  `json:"length"`
	Channels map[string][]float64 `json:"channels"`
}

func newSampleCommand() *cobra.Command {
	var (
		params   []string
		rate     float64
		channels string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "sample <template.yaml>",
		Short: "Sample a pulse template into voltage arrays",
		Long: `Sample a pulse template at a fixed rate.

The template is sequenced under the given parameter bindings, compiled
into a playback tree, and its distinct waveforms are sampled once each.
Output is CSV by default; --json switches to a JSON document.`,
		Example: `  # Sample with two parameter bindings at 2.4 samples/ns
  qupulsectl sample --param t_hold=20 --param v=0.5 --rate 2.4 ./ramp.yaml

  # JSON output into a file
  qupulsectl sample --json --output samples.json ./ramp.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := loadTemplate(args[0])
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

			slots := programChannels(loop)
			if channels != "" {
				slots = nil
				for _, name := range strings.Split(channels, ",") {
					slots = append(slots, waveform.ChannelID(strings.TrimSpace(name)))
				}
			}

			sampleRate := waveform.TimeFromFloat(rate)
			amplitudes := make([]float64, len(slots))
			for i := range amplitudes {
				amplitudes[i] = 1
			}
			entry, err := hardware.NewProgramEntry(loop, slots, nil, amplitudes,
				make([]float64, len(slots)), nil, hardware.IgnoreOffset, sampleRate)
			if err != nil {
				return err
			}
			if err := entry.Sample(0); err != nil {
				return err
			}

			log.Info().
				Int("waveforms", len(entry.Waveforms())).
				Float64("rate", rate).
				Msg("Sampled program")

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			if jsonOutput {
				return writeSamplesJSON(out, entry, slots, rate)
			}
			return writeSamplesCSV(out, entry, slots, rate)
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter binding name=value (repeatable)")
	cmd.Flags().Float64Var(&rate, "rate", 1, "sample rate in samples per nanosecond")
	cmd.Flags().StringVar(&channels, "channels", "", "comma separated channel selection")
	cmd.Flags().StringVar(&output, "output", "", "output file (default stdout)")

	return cmd
}

// programChannels collects the channels a playback tree defines, sorted.
func programChannels(loop *program.Loop) []waveform.ChannelID {
	set := waveform.NewChannelSet()
	for _, leaf := range loop.Leaves() {
		if wf := leaf.Waveform(); wf != nil {
			set = set.Union(wf.DefinedChannels())
		}
	}
	return set.Sorted()
}

func writeSamplesCSV(out *os.File, entry *hardware.ProgramEntry, slots []waveform.ChannelID, rate float64) error {
	w := csv.NewWriter(out)
	header := []string{"segment", "time"}
	for _, ch := range slots {
		header = append(header, string(ch))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for index, wf := range entry.Waveforms() {
		segment, ok := entry.Segment(wf)
		if !ok {
			return fmt.Errorf("waveform %d was not sampled", index)
		}
		for i := 0; i < segment.Length; i++ {
			row := []string{
				strconv.Itoa(index),
				strconv.FormatFloat(float64(i)/rate, 'g', -1, 64),
			}
			for slot := range slots {
				value := 0.0
				if segment.Channels[slot] != nil {
					value = segment.Channels[slot][i]
				}
				row = append(row, strconv.FormatFloat(value, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func writeSamplesJSON(out *os.File, entry *hardware.ProgramEntry, slots []waveform.ChannelID, rate float64) error {
	doc := sampledOutput{
		SampleRate: rate,
		Channels:   slotStrings(slots),
	}
	for index, wf := range entry.Waveforms() {
		segment, ok := entry.Segment(wf)
		if !ok {
			return fmt.Errorf("waveform %d was not sampled", index)
		}
		channels := make(map[string][]float64, len(slots))
		for slot, ch := range slots {
			if segment.Channels[slot] != nil {
				channels[string(ch)] = segment.Channels[slot]
			}
		}
		doc.Segments = append(doc.Segments, sampledSegment{
			Index:    index,
			Length:   segment.Length,
			Channels: channels,
		})
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}
