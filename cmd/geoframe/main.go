package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d21d3q/geoframe/internal/config"
	"github.com/d21d3q/geoframe/internal/logging"
	"github.com/d21d3q/geoframe/internal/metrics"
	"github.com/d21d3q/geoframe/internal/server"
	"github.com/d21d3q/geoframe/pkg/geoframe"
)

var (
	rootCmd = &cobra.Command{
		Use:   "geoframe",
		Short: "Decode framed telemetry into coordinates",
		Long:  "geoframe decodes streams of 16-byte sync-tagged telemetry frames into latitude/longitude records.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
	}

	decodeCmd = &cobra.Command{
		Use:   "decode [hex]",
		Short: "Decode a hex string, a binary file, or hex lines from stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := geoframe.DecodeOptions{
				Workers:     cfg.Decode.Workers,
				StrictRange: cfg.Decode.StrictRange,
			}
			dec := geoframe.NewDecoder(geoframe.DefaultRegistry(), logging.Component(logger, "decoder"), nil)
			switch {
			case inputFile != "":
				return runFile(ctx, dec, opts, inputFile)
			case len(args) == 0:
				return runInteractive(ctx, dec, opts, os.Stdin)
			default:
				return runHex(ctx, dec, opts, args[0])
			}
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the decoder over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}

	configPath string
	workers    int
	logLevel   string
	inputFile  string

	cfg    *config.Config
	logger *logrus.Logger
	stdout io.Writer = os.Stdout
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration file")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "frames decoded concurrently (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	decodeCmd.Flags().StringVarP(&inputFile, "file", "f", "", "binary capture to decode")
	rootCmd.AddCommand(decodeCmd, serveCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func setup(cmd *cobra.Command) error {
	cfg = config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Root().PersistentFlags().Changed("workers") {
		cfg.Decode.Workers = workers
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger = logging.New(cfg.Logging, os.Stderr)
	return nil
}

func runInteractive(ctx context.Context, dec *geoframe.Decoder, opts geoframe.DecodeOptions, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	logger.Info("geoframe decode mode. Paste a hex stream and press Enter (Ctrl+D to exit).")
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runHex(ctx, dec, opts, line); err != nil {
			logger.WithError(err).Error("failed to decode stream")
		}
	}
	return scanner.Err()
}

func runHex(ctx context.Context, dec *geoframe.Decoder, opts geoframe.DecodeOptions, text string) error {
	result, err := dec.DecodeHexWithOptions(ctx, text, opts)
	return report(result, err)
}

func runFile(ctx context.Context, dec *geoframe.Decoder, opts geoframe.DecodeOptions, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	result, err := dec.DecodeWithOptions(ctx, data, opts)
	if err := report(result, err); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// report prints the result, and on ErrNoValidData still prints it so the
// skip reasons are visible.
func report(result geoframe.Result, err error) error {
	if err != nil && !errors.Is(err, geoframe.ErrNoValidData) {
		return err
	}
	fmt.Fprintln(stdout, result.String())
	return err
}

func runServe(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	dec := geoframe.NewDecoder(geoframe.DefaultRegistry(), logging.Component(logger, "decoder"), m)
	srv := server.NewHTTPServer(cfg, dec, m, reg, logging.Component(logger, "http"))
	logger.WithFields(logrus.Fields{
		"addr":    cfg.Addr(),
		"workers": cfg.Decode.Workers,
		"metrics": cfg.Metrics.Enabled,
	}).Info("service starting")
	return srv.Run(ctx)
}
