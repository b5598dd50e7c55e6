package main

import (
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:   "soloquest",
		Short: "Memory-augmented game master for solo tabletop play",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log engine internals to stderr")
	root.AddCommand(initCmd())
	root.AddCommand(campaignCmd())
	root.AddCommand(sessionCmd())
	root.AddCommand(worldCmd())
	root.AddCommand(playCmd())
	root.AddCommand(threadsCmd())
	root.AddCommand(changesCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
