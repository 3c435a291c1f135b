package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Abhijeetjrock/db-analyzer1/internal/assist"
	"github.com/Abhijeetjrock/db-analyzer1/internal/database"
	"github.com/Abhijeetjrock/db-analyzer1/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the optimizer HTTP API",
	Long: `Start the HTTP server which provides:
- Query optimization with optional AI assistance
- Natural language to SQL generation
- Text report export
- Health, info and rate limit status endpoints`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 CrossDB Optimizer starting...")

	fmt.Println("📝 Loading configuration...")
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, limiter := rt.aiStack()
	deps := server.Dependencies{
		Engine:  rt.engine(gen, limiter),
		NL:      assist.NewNLGenerator(gen, limiter, rt.cfg.AI, rt.logger),
		Limiter: limiter,
		Export:  rt.cfg.Export,
		Logger:  rt.logger,
	}

	if rt.cfg.Catalog.DSN != "" {
		fmt.Printf("🔌 Connecting to %s catalog...\n", rt.cfg.Catalog.Dialect)
		db, err := database.NewConnection(ctx, rt.cfg.Catalog)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		deps.Catalog = db
		fmt.Println("✅ Database connected successfully")
	}

	fmt.Println("⚙️  Setting up server...")
	srv := server.NewServer(rt.cfg.Server, deps)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	fmt.Printf("🌐 Listening on %s\n", rt.cfg.Server.Addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	rt.logger.Info("Shutting down", zap.Duration("timeout", rt.cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	fmt.Println("👋 Server stopped")
	return nil
}
