package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"soloquest/internal/config"
	"soloquest/internal/engine"
	"soloquest/internal/llm"
)

func playCmd() *cobra.Command {
	var campaignID int64
	var sessionID int64
	var stream bool
	var extraContext string
	cmd := &cobra.Command{
		Use:   "play [player text...]",
		Short: "Play one turn: send the player's action and print the narrated result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if campaignID == 0 || sessionID == 0 {
				return fmt.Errorf("--campaign and --session are required")
			}
			return runPlay(campaignID, sessionID, strings.Join(args, " "), extraContext, stream)
		},
	}
	cmd.Flags().Int64Var(&campaignID, "campaign", 0, "Campaign id")
	cmd.Flags().Int64Var(&sessionID, "session", 0, "Session id")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream the narration as it is generated")
	cmd.Flags().StringVar(&extraContext, "context", "", "Out-of-band context for the game master")
	return cmd
}

func runPlay(campaignID, sessionID int64, playerText, extraContext string, stream bool) error {
	ctx := context.Background()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.CheckLLM(); err != nil {
		return err
	}

	log := newLogger()
	defer log.Sync()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	client := llm.New(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout(), log)
	eng := buildEngine(cfg, client, log)
	ref := engine.SessionRef{CampaignID: campaignID, SessionID: sessionID}

	var result *engine.TurnResult
	if stream {
		result, err = eng.RunTurnStream(ctx, db, ref, playerText, extraContext, func(delta string) {
			fmt.Fprint(os.Stdout, delta)
		})
		fmt.Fprintln(os.Stdout, "")
	} else {
		result, err = eng.RunTurn(ctx, db, ref, playerText, extraContext)
	}
	if err != nil {
		return err
	}

	if !stream {
		fmt.Fprintln(os.Stdout, result.Response.Narration)
	}
	if len(result.Response.Choices) > 0 {
		fmt.Fprintln(os.Stdout, "")
		for i, choice := range result.Response.Choices {
			fmt.Fprintf(os.Stdout, "  %d. %s\n", i+1, choice)
		}
	}
	if result.Response.DMNotes != "" {
		fmt.Fprintf(os.Stdout, "\n[dm] %s\n", result.Response.DMNotes)
	}
	if len(result.ChangeRequestIDs) > 0 {
		fmt.Fprintf(os.Stdout, "\n%d change request(s) pending review:", len(result.ChangeRequestIDs))
		for _, id := range result.ChangeRequestIDs {
			fmt.Fprintf(os.Stdout, " %d", id)
		}
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Review with: soloquest changes list --session", sessionID)
	}
	return nil
}
