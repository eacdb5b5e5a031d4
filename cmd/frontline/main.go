package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/app"
	"github.com/peterkuimelis/frontline/internal/config"
	"github.com/peterkuimelis/frontline/internal/log"
	fnet "github.com/peterkuimelis/frontline/internal/net"
	"github.com/peterkuimelis/frontline/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	cmd := os.Args[1]
	switch cmd {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "host":
		err = runPlay(ctx, "host", os.Args[2:], func([]string) (*fnet.ClientMessage, error) {
			return &fnet.ClientMessage{Type: fnet.MsgHost}, nil
		})
	case "ai":
		err = runPlay(ctx, "ai", os.Args[2:], func([]string) (*fnet.ClientMessage, error) {
			return &fnet.ClientMessage{Type: fnet.MsgHostAI}, nil
		})
	case "join":
		err = runPlay(ctx, "join", os.Args[2:], func(rest []string) (*fnet.ClientMessage, error) {
			if len(rest) != 1 {
				return nil, fmt.Errorf("join needs a match id")
			}
			return &fnet.ClientMessage{Type: fnet.MsgJoin, MatchID: rest[0]}, nil
		})
	case "play":
		err = runPlay(ctx, "play", os.Args[2:], func([]string) (*fnet.ClientMessage, error) {
			return nil, nil
		})
	case "lobby":
		err = runLobby(ctx, os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  frontline serve [--config FILE] [--addr ADDR] [--events]")
	fmt.Println("  frontline host  [--server URL] [--user ID] [--name NAME]")
	fmt.Println("  frontline ai    [--server URL] [--user ID] [--name NAME]")
	fmt.Println("  frontline join  [--server URL] [--user ID] [--name NAME] MATCH")
	fmt.Println("  frontline play  [--server URL] [--user ID] [--name NAME]")
	fmt.Println("  frontline lobby [--server URL]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve   Run the match server")
	fmt.Println("  host    Open a match and wait for an opponent")
	fmt.Println("  ai      Play against the automated opponent")
	fmt.Println("  join    Join an open match")
	fmt.Println("  play    Connect and start at the lobby")
	fmt.Println("  lobby   List open matches")
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", os.Getenv("FRONTLINE_CONFIG"), "path to config YAML")
	addr := fs.String("addr", "", "listen address (overrides server.address)")
	events := fs.Bool("events", false, "print match events to stdout")
	fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var sink log.EventLogger
	if *events {
		sink = log.NewTextLogger(os.Stdout)
	}
	deps, release, err := app.Build(ctx, cfg, logger, sink, nil)
	if err != nil {
		return err
	}
	defer release()

	logger.Info("frontline server starting",
		zap.String("addr", cfg.Server.Address),
		zap.String("store", cfg.Store.Driver),
		zap.String("opponent", cfg.Opponent.Kind),
	)
	return fnet.NewServer(deps).ListenAndServe(ctx, cfg.Server.Address)
}

// runPlay connects the terminal client and sends the command's opening message.
func runPlay(ctx context.Context, name string, args []string, opening func([]string) (*fnet.ClientMessage, error)) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	server := fs.String("server", "http://localhost:9999", "server base URL")
	user := fs.String("user", os.Getenv("FRONTLINE_USER"), "user id (random when empty)")
	display := fs.String("name", os.Getenv("FRONTLINE_NAME"), "display name")
	fs.Parse(args)

	first, err := opening(fs.Args())
	if err != nil {
		return err
	}
	if *user == "" {
		*user = uuid.NewString()
	}
	if *display == "" {
		*display = "Commander"
	}

	client, err := fnet.Dial(ctx, wsURL(*server), *user, *display, os.Stdout)
	if err != nil {
		return err
	}
	if first != nil {
		if err := client.Send(ctx, *first); err != nil {
			return err
		}
	} else if err := client.Send(ctx, fnet.ClientMessage{Type: fnet.MsgLobby}); err != nil {
		return err
	}
	return client.RunREPL(ctx, os.Stdin)
}

func runLobby(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lobby", flag.ExitOnError)
	server := fs.String("server", "http://localhost:9999", "server base URL")
	fs.Parse(args)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(*server, "/")+"/api/lobby", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lobby: %s", resp.Status)
	}
	var entries []session.LobbyEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("decode lobby: %w", err)
	}
	fmt.Println(fnet.RenderLobby(entries))
	return nil
}

// wsURL maps an http(s) base URL to the websocket endpoint.
func wsURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}
