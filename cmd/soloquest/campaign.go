package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"soloquest/internal/config"
)

func campaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Manage campaigns",
	}
	cmd.AddCommand(campaignCreateCmd())
	cmd.AddCommand(campaignListCmd())
	cmd.AddCommand(campaignRenameCmd())
	return cmd
}

func campaignCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			return runCampaignCreate(name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Campaign name")
	return cmd
}

func runCampaignCreate(name string) error {
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

	id, err := tx.CreateCampaign(ctx, name)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Created campaign %d: %s\n", id, name)
	return nil
}

func campaignListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCampaignList()
		},
	}
}

func runCampaignList() error {
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

	campaigns, err := tx.ListCampaigns(ctx)
	if err != nil {
		return err
	}
	if len(campaigns) == 0 {
		fmt.Fprintln(os.Stdout, "No campaigns yet.")
		return nil
	}
	for _, c := range campaigns {
		fmt.Fprintf(os.Stdout, "%d\t%s\t(last opened %s)\n", c.ID, c.Name, c.LastOpenedAt.Format("2006-01-02"))
	}
	return nil
}

func campaignRenameCmd() *cobra.Command {
	var id int64
	var name string
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename a campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			return runCampaignRename(id, name)
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Campaign id")
	cmd.Flags().StringVar(&name, "name", "", "New name")
	return cmd
}

func runCampaignRename(id int64, name string) error {
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

	campaign, err := tx.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if campaign == nil {
		return fmt.Errorf("campaign %d not found", id)
	}
	if err := tx.RenameCampaign(ctx, id, name); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Renamed campaign %d to %s\n", id, name)
	return nil
}
