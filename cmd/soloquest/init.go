package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soloquest/internal/config"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new soloquest project in the current directory",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists", configFile)
	}

	cfg := config.Default()
	if err := cfg.Write(configFile); err != nil {
		return err
	}

	ctx := context.Background()
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Wrote %s and initialised the database.\n", configFile)
	fmt.Fprintln(os.Stdout, "Edit the llm section (or set SOLOQUEST_API_KEY) before playing.")
	return nil
}
