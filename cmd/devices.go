package cmd

import (
	"fmt"
	"os"

	"github.com/dkovalev/camdvr/pkg/linuxav/v4l2"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List V4L2 capture devices",
		Long: `Enumerates /dev/video* capture devices and prints their names and ` +
			`stable identifiers. With --verbose, also probes supported formats, ` +
			`resolutions, and framerates.`,
		Run: func(_ *cobra.Command, _ []string) {
			devices, err := v4l2.FindDevices()
			if err != nil {
				fmt.Fprintf(os.Stderr, "device enumeration failed: %v\n", err)
				os.Exit(1)
			}

			if len(devices) == 0 {
				fmt.Println("No capture devices found")
				return
			}

			for _, dev := range devices {
				fmt.Printf("%s  %s", dev.DevicePath, dev.DeviceName)
				if dev.DeviceID != "" {
					fmt.Printf("  (%s)", dev.DeviceID)
				}
				fmt.Println()

				if !verbose {
					continue
				}

				formats, err := v4l2.GetFormats(dev.DevicePath)
				if err != nil {
					fmt.Printf("    formats: unavailable (%v)\n", err)
					continue
				}

				for _, f := range formats {
					fmt.Printf("    %s  %s\n", v4l2.FormatFourCC(f.PixelFormat), f.FormatName)

					resolutions, err := v4l2.GetResolutions(dev.DevicePath, f.PixelFormat)
					if err != nil {
						continue
					}
					for _, res := range resolutions {
						fmt.Printf("        %dx%d:", res.Width, res.Height)
						rates, err := v4l2.GetFramerates(dev.DevicePath, f.PixelFormat, res.Width, res.Height)
						if err == nil {
							for _, r := range rates {
								fmt.Printf(" %.3g", r.FPS())
							}
						}
						fmt.Println()
					}
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Probe formats, resolutions, and framerates")

	return cmd
}
