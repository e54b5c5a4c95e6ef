package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/eutrob/rosforge/internal/logger"
	"github.com/eutrob/rosforge/internal/platform"
	"github.com/eutrob/rosforge/internal/project"
	"github.com/eutrob/rosforge/internal/rosdistro"
	"github.com/eutrob/rosforge/internal/vscode"
)

var version = "0.4.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rosforge",
		Short: "Create containerized ROS projects from templates",
		Long: "Scaffolds ready-to-build ROS development environments: a Docker build\n" +
			"context, install scripts, a source tree skeleton and an optional VSCode\n" +
			"workspace wired to the resulting image.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(cmd)
		},
	}

	rootCmd.PersistentFlags().String("log-level", "DEBUG", "Logging level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().String("log-file", "", "File to log output")
	rootCmd.PersistentFlags().Bool("quiet", false, "Disable logging to console")

	rootCmd.AddCommand(
		newCreateCmd(),
		newVscodeCmd(),
		newPlatformsCmd(),
		newDistrosCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configureLogging maps the persistent logging flags onto the logger
// package. With --quiet the console sink is dropped; a --log-file is
// kept either way.
func configureLogging(cmd *cobra.Command) error {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("invalid log-level flag: %w", err)
	}
	logFile, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return fmt.Errorf("invalid log-file flag: %w", err)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("invalid quiet flag: %w", err)
	}

	switch {
	case quiet && logFile == "":
		logger.InitWithWriter(io.Discard, level, "text", false)
	case quiet:
		return logger.Init(logger.Config{Level: level, Output: logFile})
	case logFile == "":
		return logger.Init(logger.Config{Level: level, Output: "stderr"})
	default:
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", logFile, err)
		}
		logger.InitWithWriter(io.MultiWriter(os.Stderr, f), level, "text", false)
	}
	return nil
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <project-id> <project-dir> <ros-distro> <base-img> <img-user>",
		Short: "Create a new ROS project",
		Long: "Creates a new ROS project based on templates.\n\n" +
			"Supported ROS distros: " + rosdistro.Supported() + ".\n" +
			"Run 'rosforge platforms' for the supported Docker platforms.",
		Args: cobra.ExactArgs(5),
		RunE: runCreate,
	}

	cmd.Flags().String("img-id", "", "ID of the resulting Docker image (e.g. 'robproj:humble'). Defaults to '<project-id>:latest'")
	cmd.Flags().String("platform", "", "Platform for the resulting Docker image (e.g. 'linux/amd64'). Defaults to the host platform")
	cmd.Flags().Bool("no-vscode", false, "Do not create VSCode project")
	cmd.Flags().Bool("no-pre-commit", false, "Do not use pre-commit hooks")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	imgID, err := cmd.Flags().GetString("img-id")
	if err != nil {
		return fmt.Errorf("invalid img-id flag: %w", err)
	}
	plat, err := cmd.Flags().GetString("platform")
	if err != nil {
		return fmt.Errorf("invalid platform flag: %w", err)
	}
	noVscode, err := cmd.Flags().GetBool("no-vscode")
	if err != nil {
		return fmt.Errorf("invalid no-vscode flag: %w", err)
	}
	noPreCommit, err := cmd.Flags().GetBool("no-pre-commit")
	if err != nil {
		return fmt.Errorf("invalid no-pre-commit flag: %w", err)
	}

	creator, err := project.New(project.Request{
		ProjectID:  args[0],
		ProjectDir: args[1],
		RosDistro:  args[2],
		BaseImg:    args[3],
		ImgUser:    args[4],
		ImageID:    imgID,
		Platform:   plat,
		VSCode:     !noVscode,
		PreCommit:  !noPreCommit,
	}, logger.With("component", "project"))
	if err != nil {
		return err
	}
	return creator.Create()
}

func newVscodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vscode <ros-distro> <img-id> <img-user> <workspace-dir> <img-workspace-dir>",
		Short: "Create a VSCode project",
		Long: "Creates a VSCode workspace wired to an existing Docker image:\n" +
			"devcontainer, compose file, build tasks and IntelliSense configuration.\n\n" +
			"Supported ROS distros: " + rosdistro.Supported() + ".",
		Args: cobra.ExactArgs(5),
		RunE: runVscode,
	}
}

func runVscode(cmd *cobra.Command, args []string) error {
	variant, err := rosdistro.Lookup(args[0])
	if err != nil {
		return err
	}

	creator, err := vscode.New(variant, args[1], args[2], args[3], args[4], logger.With("component", "vscode"))
	if err != nil {
		return err
	}
	return creator.Create()
}

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported Docker platforms",
		Run: func(cmd *cobra.Command, args []string) {
			table := newTable(os.Stdout, "PLATFORM", "ARCHITECTURES", "DESCRIPTION")
			for _, p := range platform.All() {
				table.Append([]string{p.ID, strings.Join(p.Architectures, ", "), p.Description})
			}
			table.Render()
		},
	}
}

func newDistrosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distros",
		Short: "List supported ROS distros",
		Run: func(cmd *cobra.Command, args []string) {
			table := newTable(os.Stdout, "DISTRO", "ROS", "UBUNTU", "C", "C++", "PYTHON")
			for _, v := range rosdistro.All() {
				table.Append([]string{
					v.Distro,
					fmt.Sprintf("ros%d", v.ROSVersion),
					v.UbuntuVersion,
					"c" + v.CVersion,
					"c++" + v.CppVersion,
					v.PythonVersion,
				})
			}
			table.Render()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rosforge version %s\n", version)
			if p, err := platform.Detect(); err == nil {
				fmt.Printf("Default platform: %s\n", p.ID)
			}
		},
	}
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
