package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/zipfix/internal/config"
	"github.com/ossyrian/zipfix/internal/logging"
	"github.com/ossyrian/zipfix/internal/recovery"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "zipfix <archive>",
	Short: "Recover ZIP entries from local file headers when the central directory is broken",
	Args:  cobra.MaximumNArgs(1),
	RunE:  run,

	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	// output
	rootCmd.Flags().StringP("output-dir", "o", ".", "directory to write recovered entries to")
	rootCmd.Flags().Bool("dry-run", false, "verify entries without writing them")

	// recovery tunables
	rootCmd.Flags().Int("chunk-size", 1024, "bytes read per step while scanning for a data descriptor")
	rootCmd.Flags().String("on-desync", "abort", "what to do at an unrecognized header (abort, scan-forward)")
	rootCmd.Flags().Bool("verify-descriptor", false, "reject data descriptor matches that do not line up with the next record")
	rootCmd.Flags().Bool("keep-going", false, "skip entries that fail verification instead of stopping")
	rootCmd.Flags().Bool("skip-size-check", false, "only verify the CRC-32 of recovered entries")
	rootCmd.Flags().Bool("cp437-names", false, "decode non UTF-8 names as code page 437")

	// other opts
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error, fatal)")
	rootCmd.Flags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stdout and file)")

	viper.BindPFlag("output_dir", rootCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("dry_run", rootCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("chunk_size", rootCmd.Flags().Lookup("chunk-size"))
	viper.BindPFlag("on_desync", rootCmd.Flags().Lookup("on-desync"))
	viper.BindPFlag("verify_descriptor", rootCmd.Flags().Lookup("verify-descriptor"))
	viper.BindPFlag("keep_going", rootCmd.Flags().Lookup("keep-going"))
	viper.BindPFlag("skip_size_check", rootCmd.Flags().Lookup("skip-size-check"))
	viper.BindPFlag("cp437_names", rootCmd.Flags().Lookup("cp437-names"))
	viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.Flags().Lookup("log-output-dir"))
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "zipfix"))
		}
		viper.AddConfigPath("/etc/zipfix")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("ZIPFIX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// run recovers the archive named by the single positional argument
func run(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return cmd.Usage()
	}
	viper.Set("input", args[0])

	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	closeLog, err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir)
	if err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}
	defer closeLog()

	slog.Info("recovering archive", "input", cfg.InputFile)

	file, err := os.Open(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	if _, err := recovery.Run(file, cfg); err != nil {
		slog.Error(fmt.Sprintf("error recovering %s", cfg.InputFile), "error", err)
		return err
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
