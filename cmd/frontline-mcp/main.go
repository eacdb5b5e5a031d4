package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/frontline/internal/app"
	"github.com/peterkuimelis/frontline/internal/config"
	"github.com/peterkuimelis/frontline/internal/log"
	fmcp "github.com/peterkuimelis/frontline/internal/mcp"
	"github.com/peterkuimelis/frontline/internal/opponent"
	"github.com/peterkuimelis/frontline/internal/session"
)

func main() {
	_ = godotenv.Load()
	cfgPath := flag.String("config", os.Getenv("FRONTLINE_CONFIG"), "path to config YAML")
	addr := flag.String("addr", "", "address for human player connections (overrides server.address)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	build := func(ctx context.Context, events log.EventLogger, policy opponent.Policy) (session.Deps, func(), error) {
		return app.Build(ctx, cfg, logger, events, policy)
	}
	tools := fmcp.NewToolset(build, cfg.Server.Address, logger)
	defer tools.Close()

	s := server.NewMCPServer("frontline", "1.0.0")
	tools.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
