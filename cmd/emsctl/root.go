package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrMelker/EMS-ESP/internal/ems"
	"github.com/MrMelker/EMS-ESP/internal/infrastructure/config"
	"github.com/MrMelker/EMS-ESP/internal/infrastructure/logging"
)

// Set at build time via ldflags.
var version = "dev"

var (
	cfgFile   string
	outputFmt string
	source    string
	verbose   bool

	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "emsctl",
	Short: "EMS telegram toolbox",
	Long: `emsctl works with EMS heating bus telegrams without a bus connection.

It decodes captured frames against the message catalog, builds write
frames for settable fields and lists the known devices and messages.

Examples:
  # Decode a boiler broadcast
  emsctl decode "08 00 18 00 4B 01 F4"

  # Build a frame setting an RC35 day temperature to 21 °C
  emsctl encode --dest 0x10 --product 86 --message RC35Set --field tempDay --value 21

  # Show the layout of a message
  emsctl messages --type thermostat RC35Set_hc2`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level := "warn"
		if viper.GetBool("verbose") {
			level = "debug"
		}
		logger = logging.NewWithWriter(cmd.ErrOrStderr(), config.LoggingConfig{Level: level, Format: "text"}, version)

		switch OutputFormat(viper.GetString("output")) {
		case FormatTable, FormatJSON:
		default:
			return fmt.Errorf("unknown output format %q (table, json)", viper.GetString("output"))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.emsctl.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&source, "source", ems.AddrServiceKey.String(), "Source address of built telegrams")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".emsctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("EMSCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// formatter returns the output formatter for cmd.
func formatter(cmd *cobra.Command) *Formatter {
	f := NewFormatter(viper.GetString("output"))
	f.SetWriter(cmd.OutOrStdout())
	return f
}

// deviceTypeFlag parses a --type value; empty means no filter.
func deviceTypeFlag(name string) (ems.DeviceType, error) {
	if name == "" {
		return ems.DeviceTypeNone, nil
	}
	t, ok := ems.ParseDeviceType(name)
	if !ok {
		return ems.DeviceTypeNone, fmt.Errorf("unknown device type %q", name)
	}
	return t, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "emsctl version", version)
	},
}
