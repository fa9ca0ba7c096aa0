// Command dopesheetd serves a dope sheet over a node graph scene.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type rootOptions struct {
	configDir string
	scene     string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "dopesheetd",
		Short:        "Edit the keyframes and clip ranges of a node graph",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configDir, "config", "configs", "directory holding the configuration files")
	cmd.PersistentFlags().StringVar(&opts.scene, "scene", "", "scene file, overrides scene_path of the configuration")

	cmd.AddCommand(
		newServeCommand(opts),
		newDemoCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "dopesheetd", version)
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
