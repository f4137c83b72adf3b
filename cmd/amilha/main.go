package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/amilha"
	"github.com/ossyrian/amilha/internal/batch"
	"github.com/ossyrian/amilha/internal/config"
	"github.com/ossyrian/amilha/internal/logging"
	"github.com/ossyrian/amilha/internal/report"
	"github.com/ossyrian/amilha/internal/watch"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "amilha",
	Short: "Read and extract LHA/LZH archives",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stdout and file)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.PersistentFlags().Lookup("log-output-dir"))

	rootCmd.AddCommand(listCmd, extractCmd, verifyCmd, watchCmd)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "amilha"))
		}
		viper.AddConfigPath("/etc/amilha")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("AMILHA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func loadConfig() (*config.Config, error) {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return nil, fmt.Errorf("could not set up logging: %w", err)
	}
	return cfg, nil
}

// walkArchive opens path and reports every member header through fn,
// stopping at the first error fn returns or at end of archive.
func walkArchive(path string, fn func(r *amilha.Reader, h *amilha.Header) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := amilha.Open(f)
	for {
		h, err := r.NextMember()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if h == nil {
			return nil
		}
		if err := fn(r, h); err != nil {
			return err
		}
	}
}

var listCmd = &cobra.Command{
	Use:   "list <archive...>",
	Short: "List the members of one or more archives",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		for _, path := range args {
			var headers []*amilha.Header
			var supported []bool
			err := walkArchive(path, func(r *amilha.Reader, h *amilha.Header) error {
				headers = append(headers, h)
				supported = append(supported, r.IsSupported())
				method, _ := h.CompressionMethod()
				slog.Debug("parsed member", "archive", path, "name", h.PathString(), "method", method.String())
				return nil
			})
			if err != nil {
				slog.Error("failed to list archive", "archive", path, "error", err)
				continue
			}
			entries := report.BuildEntries(headers, supported, nil)
			compressed, original := report.TotalSizes(entries)
			fmt.Printf("%s:\n", path)
			for _, e := range entries {
				tag := " "
				if !e.Supported {
					tag = "?"
				}
				fmt.Printf("%s %10d %10d %6.1f%%  %-6s %s\n", tag, e.CompressedSize, e.OriginalSize, e.Ratio(), e.Method, e.Path)
			}
			fmt.Printf("  total: %d compressed, %d original\n", compressed, original)
		}
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <archive...>",
	Short: "Extract the members of one or more archives",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		outDir := c.OutputDir
		if outDir == "" {
			outDir = "."
		}

		results := batch.Process(args, 0, func(path string) (int, error) {
			count := 0
			err := walkArchive(path, func(r *amilha.Reader, h *amilha.Header) error {
				if h.IsDirectory() {
					return nil
				}
				if !r.IsSupported() {
					slog.Warn("skipping unsupported member", "archive", path, "name", h.PathString())
					if c.SkipUnsupported {
						return nil
					}
					return fmt.Errorf("unsupported method for %s", h.PathString())
				}
				if c.DryRun {
					return drain(r)
				}
				if err := extractMember(r, h, outDir, c.Overwrite); err != nil {
					return err
				}
				count++
				return nil
			})
			return count, err
		})

		var failed int
		for _, res := range results {
			if res.Err != nil {
				slog.Error("failed to extract archive", "archive", res.Path, "error", res.Err)
				failed++
				continue
			}
			slog.Info("extracted archive", "archive", res.Path, "members", res.Value)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d archives failed", failed, len(results))
		}
		return nil
	},
}

func drain(r *amilha.Reader) error {
	_, err := io.Copy(io.Discard, r)
	if err != nil {
		return err
	}
	return r.Verify()
}

// safeJoin joins outDir with the archive-declared path, refusing to
// extract outside outDir. The core reports absolute paths and `..`
// components as-is (spec.md section 4.7 step 5); rejecting them here is
// the caller's job -- see the abspath.lzh fixture in spec.md section 8.
func safeJoin(outDir, memberPath string) (string, error) {
	rel := filepath.FromSlash(memberPath)
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("refusing to extract absolute path %q", memberPath)
	}
	dest := filepath.Join(outDir, rel)
	base, err := filepath.Abs(outDir)
	if err != nil {
		return "", err
	}
	full, err := filepath.Abs(dest)
	if err != nil {
		return "", err
	}
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("refusing to extract %q outside %s", memberPath, outDir)
	}
	return dest, nil
}

func extractMember(r *amilha.Reader, h *amilha.Header, outDir string, overwrite bool) error {
	dest, err := safeJoin(outDir, h.PathString())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dest, err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("extracting %s: %w", dest, err)
	}
	return r.Verify()
}

var verifyCmd = &cobra.Command{
	Use:   "verify <archive...>",
	Short: "Verify every member's content against its recorded checksum",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}

		results := batch.Process(args, 0, func(path string) ([]report.Entry, error) {
			var headers []*amilha.Header
			var supported []bool
			var verifyErrs []error
			err := walkArchive(path, func(r *amilha.Reader, h *amilha.Header) error {
				headers = append(headers, h)
				sup := r.IsSupported()
				supported = append(supported, sup)
				if !sup {
					verifyErrs = append(verifyErrs, amilha.ErrUnsupportedMethod)
					return nil
				}
				verifyErrs = append(verifyErrs, r.Verify())
				return nil
			})
			return report.BuildEntries(headers, supported, verifyErrs), err
		})

		var anyFailed bool
		for _, res := range results {
			if res.Err != nil {
				slog.Error("failed to verify archive", "archive", res.Path, "error", res.Err)
				anyFailed = true
				continue
			}
			failed := report.Failed(res.Value)
			if len(failed) == 0 {
				fmt.Printf("%s: OK (%d members)\n", res.Path, len(res.Value))
				continue
			}
			anyFailed = true
			for _, e := range failed {
				fmt.Printf("%s: FAILED %s: %v\n", res.Path, e.Path, e.VerifyErr)
			}
		}
		if anyFailed {
			return errors.New("one or more members failed verification")
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Watch a directory and list archives as they arrive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		slog.Info("watching for incoming archives", "dir", args[0])
		return watch.Directory(ctx, args[0], func(path string) {
			slog.Info("archive arrived", "path", path)
			err := walkArchive(path, func(r *amilha.Reader, h *amilha.Header) error {
				fmt.Printf("%s: %s (%d bytes)\n", path, h.PathString(), h.OriginalSize)
				return nil
			})
			if err != nil {
				slog.Error("failed to list incoming archive", "path", path, "error", err)
			}
		})
	},
}

func main() {
	ctx := context.Background()
	rootCmd.SetContext(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
