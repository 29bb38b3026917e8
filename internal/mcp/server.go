package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"tankscope/internal/assessment"
	"tankscope/internal/config"
	"tankscope/internal/dataset"
)

const instructions = `TankScope compares a storage tank against a cohort of inspected tanks.
Call list_categories first to learn the valid filter values, then describe_cohort
or assess_tank. Never invent statistics or probabilities the tools did not return.`

// Server holds the state for the MCP server.
type Server struct {
	cfg   *config.AppConfig
	store *dataset.Store
	cache *assessment.Cache
	mcp   *sdk.Server
}

// NewServer creates a new MCP server and registers its tools.
func NewServer(cfg *config.AppConfig, store *dataset.Store, cache *assessment.Cache, version string) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		cache: cache,
	}
	s.mcp = sdk.NewServer(&sdk.Implementation{Name: "tankscope", Version: version}, &sdk.ServerOptions{
		Instructions: instructions,
	})
	s.registerTools()
	return s
}

// Start serves MCP over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Msg("MCP server starting stdio loop")
	if err := s.mcp.Run(ctx, &sdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}

// dataset returns the current snapshot or an error when none is loaded.
func (s *Server) dataset() (*dataset.Dataset, uint64, error) {
	ds, gen := s.store.Current()
	if ds == nil {
		return nil, 0, fmt.Errorf("no dataset loaded; check DATASET_PATH (%s)", s.cfg.DatasetPath)
	}
	return ds, gen, nil
}
