package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"soloquest/internal/config"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage play sessions",
	}
	cmd.AddCommand(sessionCreateCmd())
	cmd.AddCommand(sessionListCmd())
	cmd.AddCommand(sessionSidebarCmd())
	return cmd
}

func sessionCreateCmd() *cobra.Command {
	var campaignID int64
	var title string
	var scene string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session in a campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			if campaignID == 0 {
				return fmt.Errorf("--campaign is required")
			}
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("--title is required")
			}
			return runSessionCreate(campaignID, title, scene)
		},
	}
	cmd.Flags().Int64Var(&campaignID, "campaign", 0, "Campaign id")
	cmd.Flags().StringVar(&title, "title", "", "Session title")
	cmd.Flags().StringVar(&scene, "scene", "", "Opening scene label (defaults to a generated id)")
	return cmd
}

func runSessionCreate(campaignID int64, title, scene string) error {
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

	campaign, err := tx.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign == nil {
		return fmt.Errorf("campaign %d not found", campaignID)
	}

	if scene == "" {
		scene = "scene-" + uuid.NewString()[:8]
	}
	id, err := tx.CreateSession(ctx, campaignID, title, scene)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Created session %d in campaign %s (scene %s)\n", id, campaign.Name, scene)
	return nil
}

func sessionListCmd() *cobra.Command {
	var campaignID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions in a campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			if campaignID == 0 {
				return fmt.Errorf("--campaign is required")
			}
			return runSessionList(campaignID)
		},
	}
	cmd.Flags().Int64Var(&campaignID, "campaign", 0, "Campaign id")
	return cmd
}

func runSessionList(campaignID int64) error {
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

	sessions, err := tx.ListSessions(ctx, campaignID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stdout, "No sessions yet.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(os.Stdout, "%d\t%s\t(scene %s)\n", s.ID, s.Title, s.CurrentScene)
	}
	return nil
}

func sessionSidebarCmd() *cobra.Command {
	var id int64
	var scene string
	var state string
	var notes string
	cmd := &cobra.Command{
		Use:   "sidebar",
		Short: "Edit a session's scene, state, or pinned world notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			if scene == "" && state == "" && notes == "" {
				return fmt.Errorf("nothing to update; pass --scene, --state, or --notes")
			}
			return runSessionSidebar(id, scene, state, notes)
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Session id")
	cmd.Flags().StringVar(&scene, "scene", "", "New current scene")
	cmd.Flags().StringVar(&state, "state", "", "New session state (time, weather, party status)")
	cmd.Flags().StringVar(&notes, "notes", "", "New pinned world notes")
	return cmd
}

func runSessionSidebar(id int64, scene, state, notes string) error {
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

	session, err := tx.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %d not found", id)
	}

	if scene == "" {
		scene = session.CurrentScene
	}
	if state == "" {
		state = session.SessionState
	}
	if notes == "" {
		notes = session.PinnedWorldNotes
	}
	if err := tx.UpdateSessionSidebar(ctx, id, scene, state, notes); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Updated session %d\n", id)
	return nil
}
