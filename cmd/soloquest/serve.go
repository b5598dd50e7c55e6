package main

import (
	"context"

	"github.com/spf13/cobra"

	"soloquest/internal/config"
	"soloquest/internal/llm"
	"soloquest/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
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

	server := mcp.NewServer(eng, db, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
