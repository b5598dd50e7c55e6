package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"soloquest/internal/config"
	"soloquest/internal/store"
	"soloquest/internal/worldfile"
)

func worldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Manage the campaign world bible",
	}
	cmd.AddCommand(worldImportCmd())
	cmd.AddCommand(worldListCmd())
	cmd.AddCommand(worldAddCmd())
	return cmd
}

func worldImportCmd() *cobra.Command {
	var campaignID int64
	cmd := &cobra.Command{
		Use:   "import [paths...]",
		Short: "Import markdown world files into the world bible",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if campaignID == 0 {
				return fmt.Errorf("--campaign is required")
			}
			return runWorldImport(campaignID, args)
		},
	}
	cmd.Flags().Int64Var(&campaignID, "campaign", 0, "Campaign id")
	return cmd
}

func runWorldImport(campaignID int64, roots []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := worldfile.Import(ctx, tx, campaignID, roots)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Import complete.")
	fmt.Fprintf(os.Stdout, "  Entries upserted: %d\n", result.EntriesUpserted)
	fmt.Fprintf(os.Stdout, "  Files skipped:    %d\n", result.FilesSkipped)
	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("import completed with errors")
	}
	return nil
}

func worldListCmd() *cobra.Command {
	var campaignID int64
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List world bible entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if campaignID == 0 {
				return fmt.Errorf("--campaign is required")
			}
			return runWorldList(campaignID, limit)
		},
	}
	cmd.Flags().Int64Var(&campaignID, "campaign", 0, "Campaign id")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to show")
	return cmd
}

func runWorldList(campaignID int64, limit int) error {
	ctx := context.Background()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	entries, err := tx.ListWorldBibleEntries(ctx, campaignID, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No world bible entries.")
		return nil
	}
	for _, entry := range entries {
		line := fmt.Sprintf("%d\t[%s] %s", entry.ID, entry.EntryType, entry.Title)
		if entry.Tags != "" {
			line += " (" + entry.Tags + ")"
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

func worldAddCmd() *cobra.Command {
	var campaignID int64
	var entryType string
	var title string
	var content string
	var tags string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a world bible entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if campaignID == 0 {
				return fmt.Errorf("--campaign is required")
			}
			if strings.TrimSpace(title) == "" || strings.TrimSpace(entryType) == "" {
				return fmt.Errorf("--title and --type are required")
			}
			return runWorldAdd(store.WorldBibleEntryInput{
				CampaignID: campaignID,
				EntryType:  entryType,
				Title:      title,
				Content:    content,
				Tags:       tags,
			})
		},
	}
	cmd.Flags().Int64Var(&campaignID, "campaign", 0, "Campaign id")
	cmd.Flags().StringVar(&entryType, "type", "", "Entry type (Location, NPC, Faction, ...)")
	cmd.Flags().StringVar(&title, "title", "", "Entry title")
	cmd.Flags().StringVar(&content, "content", "", "Entry body text")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	return cmd
}

func runWorldAdd(in store.WorldBibleEntryInput) error {
	ctx := context.Background()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	id, err := tx.UpsertWorldBibleEntry(ctx, in)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Upserted entry %d: [%s] %s\n", id, in.EntryType, in.Title)
	return nil
}
