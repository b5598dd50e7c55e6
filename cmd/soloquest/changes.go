package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soloquest/internal/config"
	"soloquest/internal/store"
)

func changesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Review state change requests proposed by the game master",
	}
	cmd.AddCommand(changesListCmd())
	cmd.AddCommand(changesApplyCmd())
	cmd.AddCommand(changesRejectCmd())
	return cmd
}

func changesListCmd() *cobra.Command {
	var sessionID int64
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending change requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == 0 {
				return fmt.Errorf("--session is required")
			}
			return runChangesList(sessionID, all)
		},
	}
	cmd.Flags().Int64Var(&sessionID, "session", 0, "Session id")
	cmd.Flags().BoolVar(&all, "all", false, "Include applied and rejected requests")
	return cmd
}

func runChangesList(sessionID int64, all bool) error {
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

	status := store.StatusPending
	if all {
		status = ""
	}
	requests, err := tx.ListChangeRequests(ctx, sessionID, status, 100)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		fmt.Fprintln(os.Stdout, "No change requests.")
		return nil
	}
	for _, r := range requests {
		fmt.Fprintf(os.Stdout, "%d\tturn %d\t%s\t%s\n", r.ID, r.TurnIndex, r.Kind, r.Status)
		fmt.Fprintf(os.Stdout, "\t%s\n", r.DeltaJSONText)
		if r.ErrorText != "" {
			fmt.Fprintf(os.Stdout, "\t! %s\n", r.ErrorText)
		}
	}
	return nil
}

func changesApplyCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Validate and apply a change request to the character sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			return runChangesApply(id)
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Change request id")
	return cmd
}

func runChangesApply(id int64) error {
	ctx := context.Background()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	eng := buildEngine(cfg, nil, log)
	result, err := eng.ApplyChange(ctx, db, id)
	if err != nil {
		return err
	}
	if result.Status == store.StatusRejected {
		fmt.Fprintf(os.Stdout, "Request %d rejected: %s\n", id, result.ErrorText)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Applied request %d to the character sheet\n", id)
	return nil
}

func changesRejectCmd() *cobra.Command {
	var id int64
	var reason string
	cmd := &cobra.Command{
		Use:   "reject",
		Short: "Reject a change request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			return runChangesReject(id, reason)
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Change request id")
	cmd.Flags().StringVar(&reason, "reason", "rejected by player", "Why the change is rejected")
	return cmd
}

func runChangesReject(id int64, reason string) error {
	ctx := context.Background()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := newLogger()
	defer log.Sync()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	eng := buildEngine(cfg, nil, log)
	if err := eng.RejectChange(ctx, db, id, reason); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Rejected request %d\n", id)
	return nil
}
