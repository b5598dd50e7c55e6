package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"soloquest/internal/config"
	"soloquest/internal/store"
)

func threadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "Manage plot threads",
	}
	cmd.AddCommand(threadsListCmd())
	cmd.AddCommand(threadsCreateCmd())
	cmd.AddCommand(threadsUpdateCmd())
	cmd.AddCommand(threadsCloseCmd())
	return cmd
}

func threadsListCmd() *cobra.Command {
	var sessionID int64
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a session's plot threads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == 0 {
				return fmt.Errorf("--session is required")
			}
			switch status {
			case "", store.ThreadOpen, store.ThreadClosed:
			default:
				return fmt.Errorf("--status must be open or closed")
			}
			return runThreadsList(sessionID, status)
		},
	}
	cmd.Flags().Int64Var(&sessionID, "session", 0, "Session id")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (open or closed)")
	return cmd
}

func runThreadsList(sessionID int64, status string) error {
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

	threads, err := tx.ListThreads(ctx, sessionID, status, 100)
	if err != nil {
		return err
	}
	if len(threads) == 0 {
		fmt.Fprintln(os.Stdout, "No plot threads.")
		return nil
	}
	for _, thread := range threads {
		fmt.Fprintf(os.Stdout, "%d\t(P%d, %s)\t%s\n", thread.ID, thread.Priority, thread.Status, thread.Title)
		if thread.Summary != "" {
			fmt.Fprintf(os.Stdout, "\t%s\n", thread.Summary)
		}
		if thread.NextStep != "" {
			fmt.Fprintf(os.Stdout, "\tnext: %s\n", thread.NextStep)
		}
	}
	return nil
}

func threadsCreateCmd() *cobra.Command {
	var sessionID int64
	var title string
	var priority int
	var summary string
	var nextStep string
	var tags string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new plot thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == 0 {
				return fmt.Errorf("--session is required")
			}
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("--title is required")
			}
			return runThreadsCreate(store.PlotThreadInput{
				SessionID: sessionID,
				Title:     title,
				Priority:  priority,
				Summary:   summary,
				NextStep:  nextStep,
				Tags:      tags,
			})
		},
	}
	cmd.Flags().Int64Var(&sessionID, "session", 0, "Session id")
	cmd.Flags().StringVar(&title, "title", "", "Thread title")
	cmd.Flags().IntVar(&priority, "priority", 5, "Priority, higher is more urgent")
	cmd.Flags().StringVar(&summary, "summary", "", "Progress summary")
	cmd.Flags().StringVar(&nextStep, "next", "", "Suggested next step")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	return cmd
}

func runThreadsCreate(in store.PlotThreadInput) error {
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

	id, err := tx.CreateThread(ctx, in)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Opened thread %d: %s\n", id, in.Title)
	return nil
}

func threadsUpdateCmd() *cobra.Command {
	var id int64
	var title string
	var priority int
	var summary string
	var nextStep string
	var tags string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit a plot thread's fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			return runThreadsUpdate(cmd, id, title, priority, summary, nextStep, tags)
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Thread id")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().IntVar(&priority, "priority", -1, "New priority")
	cmd.Flags().StringVar(&summary, "summary", "", "New progress summary")
	cmd.Flags().StringVar(&nextStep, "next", "", "New next step")
	cmd.Flags().StringVar(&tags, "tags", "", "New comma-separated tags")
	return cmd
}

func runThreadsUpdate(cmd *cobra.Command, id int64, title string, priority int, summary, nextStep, tags string) error {
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

	thread, err := tx.GetThread(ctx, id)
	if err != nil {
		return err
	}
	if thread == nil {
		return fmt.Errorf("thread %d not found", id)
	}

	updated := store.PlotThreadInput{
		SessionID: thread.SessionID,
		Title:     thread.Title,
		Priority:  thread.Priority,
		Summary:   thread.Summary,
		NextStep:  thread.NextStep,
		Tags:      thread.Tags,
	}
	if title != "" {
		updated.Title = title
	}
	if cmd.Flags().Changed("priority") {
		updated.Priority = priority
	}
	if summary != "" {
		updated.Summary = summary
	}
	if nextStep != "" {
		updated.NextStep = nextStep
	}
	if tags != "" {
		updated.Tags = tags
	}

	if err := tx.UpdateThread(ctx, id, updated); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Updated thread %d\n", id)
	return nil
}

func threadsCloseCmd() *cobra.Command {
	var id int64
	var reopen bool
	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close (or reopen) a plot thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			status := store.ThreadClosed
			if reopen {
				status = store.ThreadOpen
			}
			return runThreadsClose(id, status)
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Thread id")
	cmd.Flags().BoolVar(&reopen, "reopen", false, "Reopen instead of closing")
	return cmd
}

func runThreadsClose(id int64, status string) error {
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

	thread, err := tx.GetThread(ctx, id)
	if err != nil {
		return err
	}
	if thread == nil {
		return fmt.Errorf("thread %d not found", id)
	}
	if err := tx.SetThreadStatus(ctx, id, status); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Thread %d is now %s\n", id, status)
	return nil
}
