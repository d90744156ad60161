package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"specviz/internal/config"
	"specviz/pkg/build"
)

// ParseArgs builds the startup configuration from defaults, an optional
// YAML file and command line flags. Flags that were set explicitly win
// over file values, which win over defaults.
func ParseArgs() (*config.Config, error) {
	info := build.GetInfo()
	options := config.NewConfig()

	var configPath string
	var refreshMS int

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         "Real-time terminal audio spectrum visualizer",
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			mergeFileConfig(cmd, options, fileCfg)
			if cmd.Flags().Changed("refresh") {
				options.Refresh = time.Duration(refreshMS) * time.Millisecond
			}
			options.TUIMode = true
			return options.Validate()
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
			options.TUIMode = false
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML configuration file")

	// Audio device configuration
	rootCmd.PersistentFlags().IntVarP(&options.DeviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices")
	rootCmd.PersistentFlags().Float64VarP(&options.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().BoolVarP(&options.LowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Request low latency mode from the device")

	// Analysis configuration
	rootCmd.PersistentFlags().IntVarP(&options.FFTSize, "fft-size", "n", config.DefaultFFTSize,
		"FFT window size in samples (power of 2)")
	rootCmd.PersistentFlags().StringVarP(&options.Window, "window", "w", config.DefaultWindow,
		"FFT window function (hann, hamming, blackman, ...)")

	// Display configuration
	rootCmd.PersistentFlags().IntVarP(&options.BarCount, "bars", "b", config.DefaultBarCount,
		"Number of spectrum bars")
	rootCmd.PersistentFlags().Float64VarP(&options.Sensitivity, "sensitivity", "g", config.DefaultSensitivity,
		"Magnitude gain applied to the display")
	rootCmd.PersistentFlags().IntVarP(&refreshMS, "refresh", "r", int(config.DefaultRefresh/time.Millisecond),
		"Render interval in milliseconds")
	rootCmd.PersistentFlags().StringVar(&options.ColorScheme, "color-scheme", config.Schemes[0],
		"Bar color scheme")

	// Debug configuration
	rootCmd.PersistentFlags().StringVar(&options.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// mergeFileConfig copies file values into options for every flag the
// user did not set explicitly on the command line.
func mergeFileConfig(cmd *cobra.Command, options, file *config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("device") {
		options.DeviceID = file.DeviceID
	}
	if !flags.Changed("sample-rate") {
		options.SampleRate = file.SampleRate
	}
	if !flags.Changed("low-latency") {
		options.LowLatency = file.LowLatency
	}
	if !flags.Changed("fft-size") {
		options.FFTSize = file.FFTSize
	}
	if !flags.Changed("window") {
		options.Window = file.Window
	}
	if !flags.Changed("bars") {
		options.BarCount = file.BarCount
	}
	if !flags.Changed("sensitivity") {
		options.Sensitivity = file.Sensitivity
	}
	if !flags.Changed("refresh") {
		options.Refresh = file.Refresh
	}
	if !flags.Changed("color-scheme") {
		options.ColorScheme = file.ColorScheme
	}
	if !flags.Changed("log-level") {
		options.LogLevel = file.LogLevel
	}
}
