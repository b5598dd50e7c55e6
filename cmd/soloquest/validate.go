package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soloquest/internal/config"
	"soloquest/internal/validate"
)

func validateCmd() *cobra.Command {
	var sessionID int64
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Audit a session's stored rows for structural problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == 0 {
				return fmt.Errorf("--session is required")
			}
			return runValidate(sessionID)
		},
	}
	cmd.Flags().Int64Var(&sessionID, "session", 0, "Session id")
	return cmd
}

func runValidate(sessionID int64) error {
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

	report, err := validate.Run(ctx, tx, sessionID)
	if err != nil {
		return err
	}

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out *os.File, issues []validate.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(out, "  - %s (%s)\n", issue.Message, issue.Code)
	}
}
