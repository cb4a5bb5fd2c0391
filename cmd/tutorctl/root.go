package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/bilingualtutor/internal/config"
	"github.com/example/bilingualtutor/internal/logger"
	"github.com/example/bilingualtutor/internal/service"
	"github.com/example/bilingualtutor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutorctl",
	Short: "Operator CLI for the bilingual tutor core",
}

func init() {
	rootCmd.AddCommand(ingestCmd, vacuumCmd, statsCmd)
}

// buildService opens the configured store and wires a Service over it.
// Callers are responsible for closing the returned pool.
func buildService() (*service.Service, *store.Pool, error) {
	cfg := config.Load()
	log := logger.New(logger.Config(cfg.Logging))

	pool, err := store.Open(cfg.Store, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	svc := service.New(pool, log, cfg.Session.ReviewShare, cfg.Session.LanguageBalance, cfg.Deadline, 0)
	return svc, pool, nil
}
