package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/smazurov/camsession/internal/config"
	"github.com/smazurov/camsession/pkg/camera"
	"github.com/spf13/cobra"
)

// CreateProfileCmd creates the profile command with its check and negotiate
// subcommands.
func CreateProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect camera profiles",
		Long:  `Commands that load a camera profile without opening the camera.`,
	}
	cmd.AddCommand(createProfileCheckCmd(), createNegotiateCmd())
	return cmd
}

func createProfileCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [profile]",
		Short: "Validate a camera profile",
		Long:  `Parses the profile and reports every field that does not convert.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.LoadProfile(args[0])
			if err != nil {
				return err
			}
			ch, err := p.Characteristics()
			if err != nil {
				return err
			}
			gen, _ := p.GenerationValue()
			printProfile(cmd.OutOrStdout(), ch, gen)
			return nil
		},
	}
}

func createNegotiateCmd() *cobra.Command {
	var width, height, fps int

	cmd := &cobra.Command{
		Use:   "negotiate [profile]",
		Short: "Print the capture format a profile negotiates",
		Long: `Loads the profile and runs format negotiation against its target. ` +
			`The --width, --height and --fps flags override the profile target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.LoadProfile(args[0])
			if err != nil {
				return err
			}
			ch, err := p.Characteristics()
			if err != nil {
				return err
			}
			gen, _ := p.GenerationValue()

			target := p.TargetValue()
			if cmd.Flags().Changed("width") {
				target.Width = width
			}
			if cmd.Flags().Changed("height") {
				target.Height = height
			}
			if cmd.Flags().Changed("fps") {
				target.MinFps = fps
			}

			caps := camera.NewCapabilities(ch, target, p.QuirksValue())
			format, ok := caps.BestFormat()
			if !ok {
				return fmt.Errorf("profile %s has no supported capture formats", args[0])
			}
			if gen == camera.GenerationLegacy {
				format.PixelFormat = camera.PixelFormatNV21
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "target:     %dx%d@%d fps\n", target.Width, target.Height, target.MinFps)
			fmt.Fprintf(out, "format:     %dx%d %s\n", format.Width, format.Height, format.PixelFormat)
			fmt.Fprintf(out, "framerate:  %s fps\n", fpsRange(format.Framerate))
			if size := format.FrameSize(); size > 0 {
				fmt.Fprintf(out, "frame size: %d bytes\n", size)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "Target width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "Target height in pixels")
	cmd.Flags().IntVar(&fps, "fps", 0, "Minimum target frame rate")
	return cmd
}

func printProfile(out io.Writer, ch camera.Characteristics, gen camera.Generation) {
	sizes := make([]string, len(ch.PreviewSizes))
	for i, s := range ch.PreviewSizes {
		sizes[i] = s.String()
	}
	ranges := make([]string, len(ch.FpsRanges))
	for i, r := range ch.FpsRanges {
		ranges[i] = r.String()
	}

	fmt.Fprintf(out, "camera:      %s (index %d)\n", ch.ID, ch.Index)
	fmt.Fprintf(out, "facing:      %s\n", ch.Facing)
	fmt.Fprintf(out, "generation:  %s\n", gen)
	fmt.Fprintf(out, "orientation: %d\n", ch.SensorOrientation)
	fmt.Fprintf(out, "sizes:       %s\n", strings.Join(sizes, " "))
	fmt.Fprintf(out, "fps ranges:  %s\n", strings.Join(ranges, " "))
	fmt.Fprintln(out, "profile OK")
}

// fpsRange formats a milli-fps range in whole fps.
func fpsRange(r camera.FramerateRange) string {
	if r.Min == r.Max {
		return fmt.Sprintf("%g", float64(r.Max)/1000)
	}
	return fmt.Sprintf("%g-%g", float64(r.Min)/1000, float64(r.Max)/1000)
}
