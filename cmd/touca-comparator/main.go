package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trytouca/touca-go/pkg/comparator"
	"github.com/trytouca/touca-go/pkg/touca/logx"
	"github.com/trytouca/touca-go/pkg/touca/platform"
	"github.com/trytouca/touca-go/pkg/touca/transport"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "touca-comparator",
		Short: "Comparator service: polls the platform for jobs and diffs test case artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load .env file: %v\n", err)
			}
			return run()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./touca-comparator.yaml)")

	rootCmd.Flags().String("api-url", "", "platform base URL")
	rootCmd.Flags().String("project-dir", ".", "working directory for the service")
	rootCmd.Flags().String("storage-dir", "./storage", "on-disk artifact tree")
	rootCmd.Flags().String("log-dir", "./logs", "log output directory")
	rootCmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().Int("max-failures", 5, "maximum tolerated consecutive job failures")
	rootCmd.Flags().Duration("polling-interval", 5*time.Second, "delay between empty job-list polls")
	rootCmd.Flags().Duration("startup-interval", 2*time.Second, "delay between failed startup handshakes")
	rootCmd.Flags().Duration("startup-timeout", 30*time.Second, "total time allowed for startup handshakes")

	_ = viper.BindPFlags(rootCmd.Flags())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("touca-comparator %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("touca-comparator")
	}
	viper.SetEnvPrefix("TOUCA_COMPARATOR")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func run() error {
	logDir := viper.GetString("log-dir")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.OpenFile(logDir+"/service.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	log := logx.New(logx.Level(viper.GetString("log-level")), os.Stderr, logFile)

	cfg := comparator.Config{
		APIURL:          viper.GetString("api-url"),
		ProjectDir:      viper.GetString("project-dir"),
		StorageDir:      viper.GetString("storage-dir"),
		LogDir:          logDir,
		LogLevel:        logx.Level(viper.GetString("log-level")),
		MaxFailures:     viper.GetInt("max-failures"),
		PollingInterval: viper.GetDuration("polling-interval"),
		StartupInterval: viper.GetDuration("startup-interval"),
		StartupTimeout:  viper.GetDuration("startup-timeout"),
	}
	if cfg.APIURL == "" {
		return fmt.Errorf("api-url is required")
	}

	addr, err := platform.ParseAddress(cfg.APIURL)
	if err != nil {
		return err
	}
	t := transport.New(addr.Root)
	p := platform.New(t, addr.Team)

	svc := comparator.New(cfg, p, log)

	log.Info("comparator service starting", map[string]any{"api_url": cfg.APIURL})
	if err := svc.Run(context.Background()); err != nil {
		log.Error("comparator service exited with error", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
