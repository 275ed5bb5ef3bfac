package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"planrec/api"
	"planrec/catalog"
	"planrec/config"
	"planrec/engine"
	"planrec/graph"
	"planrec/patients"
	"planrec/recommend"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("addr", ":8000", "Listen address")
	flags.String("graph-backend", "neo4j", "Graph store: neo4j or memory")
	v.BindPFlag("server.addr", flags.Lookup("addr"))
	v.BindPFlag("graph.backend", flags.Lookup("graph-backend"))
}

func openGraph(ctx context.Context, cfg *config.Config, logger *slog.Logger) (graph.Store, error) {
	if cfg.Graph.Backend == "memory" {
		logger.Warn("using in-memory graph store; rule edges are lost on exit")
		return graph.NewMemoryStore(), nil
	}
	return graph.OpenNeo4j(ctx, cfg.GraphStore(), logger)
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pool, err := openPool(ctx, cfg.Postgres.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	whPool := pool
	if cfg.Warehouse.URL != cfg.Postgres.URL {
		whPool, err = openPool(ctx, cfg.Warehouse.URL, logger)
		if err != nil {
			return fmt.Errorf("warehouse: %w", err)
		}
		defer whPool.Close()
	}

	store, err := openGraph(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	warehouse := catalog.NewWarehouse(whPool, cfg.Warehouse.Table, logger)
	srv := api.NewServer(api.Deps{
		Patients:    patients.NewStore(pool, logger),
		Catalog:     warehouse,
		Planner:     engine.NewService(warehouse, store, logger),
		Recommender: recommend.New(cfg.Recommender(), logger),
		Graph:       store,
	}, logger)

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
