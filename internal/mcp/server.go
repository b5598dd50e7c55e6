// Package mcp exposes the game engine over the Model Context Protocol so an
// MCP client can play turns and manage the campaign through typed tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"soloquest/internal/engine"
	"soloquest/internal/store"
)

// GameEngine is the engine surface the tools call. *engine.Engine satisfies
// it; tests substitute a fake.
type GameEngine interface {
	RunTurn(ctx context.Context, st store.Store, ref engine.SessionRef, playerText, extraContext string) (*engine.TurnResult, error)
	ApplyChange(ctx context.Context, st store.Store, requestID int64) (*store.StateChangeRequest, error)
	RejectChange(ctx context.Context, st store.Store, requestID int64, reason string) error
}

type Server struct {
	eng GameEngine
	db  store.Store
	mcp *sdk.Server
}

func NewServer(eng GameEngine, db store.Store, version string) *Server {
	s := &Server{
		eng: eng,
		db:  db,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "soloquest",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
