// Command rosapt installs apt packages for image build scripts. It
// dry-runs the install first and, when apt reports packages it cannot
// locate, retries with exactly those packages removed so one missing
// package does not sink the whole layer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eutrob/rosforge/internal/aptget"
	"github.com/eutrob/rosforge/internal/logger"
)

var version = "0.4.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rosapt [packages...]",
		Short: "Install apt packages, skipping the ones apt cannot locate",
		Long: "Installs the given apt packages. The install is simulated first; packages\n" +
			"the dry run reports as unlocatable are dropped from the list and logged,\n" +
			"and the remainder is installed for real.",
		Args:    cobra.ArbitraryArgs,
		Version: version,
		RunE:    runInstall,
	}

	rootCmd.Flags().StringArray("file", nil, "File listing one package per line, '#' comments allowed. Repeatable")
	rootCmd.Flags().Bool("update", false, "Run 'apt-get update' first")
	rootCmd.Flags().String("log-level", "INFO", "Logging level (DEBUG, INFO, WARN, ERROR)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("invalid log-level flag: %w", err)
	}
	if err := logger.Init(logger.Config{Level: level, Output: "stderr"}); err != nil {
		return err
	}

	files, err := cmd.Flags().GetStringArray("file")
	if err != nil {
		return fmt.Errorf("invalid file flag: %w", err)
	}
	update, err := cmd.Flags().GetBool("update")
	if err != nil {
		return fmt.Errorf("invalid update flag: %w", err)
	}

	packages := append([]string(nil), args...)
	for _, file := range files {
		listed, err := aptget.ReadPackagesFile(file)
		if err != nil {
			return err
		}
		packages = append(packages, listed...)
	}
	if len(packages) == 0 && !update {
		return errors.New("no packages given. Pass package names or --file lists")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	installer := aptget.NewInstaller(logger.With("component", "rosapt"))
	if update {
		if err := installer.Update(ctx); err != nil {
			return err
		}
	}

	skipped, err := installer.Install(ctx, packages)
	if err != nil {
		return err
	}
	if len(skipped) > 0 {
		fmt.Printf("Skipped unavailable packages: %s\n", strings.Join(skipped, " "))
	}
	return nil
}
