// Package mcp lets an MCP client play the automated side of frontline matches.
// The tools start a match server that humans connect to with the terminal client;
// every automated turn on that server is decided through the tools.
package mcp

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/peterkuimelis/frontline/internal/log"
	fnet "github.com/peterkuimelis/frontline/internal/net"
	"github.com/peterkuimelis/frontline/internal/opponent"
	"github.com/peterkuimelis/frontline/internal/session"
)

// DepsFunc builds the collaborators of the match server. events must become the
// engine's event logger and policy the automated opponent's policy. The returned
// func releases whatever DepsFunc opened.
type DepsFunc func(ctx context.Context, events log.EventLogger, policy opponent.Policy) (session.Deps, func(), error)

// Toolset holds the one game session of a stdio MCP process.
type Toolset struct {
	build   DepsFunc
	address string
	logger  *zap.Logger

	mu     sync.Mutex
	active *GameSession
	stop   func()
}

func NewToolset(build DepsFunc, address string, logger *zap.Logger) *Toolset {
	return &Toolset{build: build, address: address, logger: logger}
}

// RegisterTools adds all game tools to the MCP server.
func (t *Toolset) RegisterTools(s *server.MCPServer) {
	s.AddTool(startGameTool(), t.handleStartGame)
	s.AddTool(waitForTurnTool(), t.handleWaitForTurn)
	s.AddTool(submitMoveTool(), t.handleSubmitMove)
	s.AddTool(getGameStateTool(), t.handleGetGameState)
	s.AddTool(stopGameTool(), t.handleStopGame)
}

// --- Tool definitions ---

func startGameTool() mcp.Tool {
	return mcp.NewTool("start_game",
		mcp.WithDescription("Start the frontline match server and take the automated commander's seat. "+
			"The human runs `frontline ai --server http://<address>` in a separate terminal. "+
			"Then call wait_for_turn."),
		mcp.WithString("address", mcp.Description("host:port to listen on; defaults to the configured server address")),
	)
}

func waitForTurnTool() mcp.Tool {
	return mcp.NewTool("wait_for_turn",
		mcp.WithDescription("Block until the automated commander must move or the match ends. "+
			"Returns the board view, events since the last call and the legal moves."),
	)
}

func submitMoveTool() mcp.Tool {
	return mcp.NewTool("submit_move",
		mcp.WithDescription("Play one move for the automated commander, then wait for the next decision. "+
			"Board positions are 0-based indices into the view. Target -1 attacks the enemy command post."),
		mcp.WithString("action", mcp.Enum(
			opponent.MovePlayCard, opponent.MoveAttack, opponent.MoveUseAbility, opponent.MoveEndTurn, opponent.MoveSurrender,
		), mcp.Description("Move kind; required unless move_json is given")),
		mcp.WithString("card_id", mcp.Description("PLAY_CARD: id of the card to deploy")),
		mcp.WithNumber("index", mcp.Description("PLAY_CARD: hand index")),
		mcp.WithNumber("attacker_index", mcp.Description("ATTACK: index of your attacking unit")),
		mcp.WithNumber("unit_index", mcp.Description("USE_ABILITY: index of your unit")),
		mcp.WithNumber("target_index", mcp.Description("ATTACK: enemy unit index or -1; USE_ABILITY: your target unit")),
		mcp.WithString("move_json", mcp.Description("The whole move as a JSON object, e.g. "+
			`{"action":"ATTACK","attackerIndex":0,"targetIndex":-1}`+". Overrides the other arguments.")),
	)
}

func getGameStateTool() mcp.Tool {
	return mcp.NewTool("get_game_state",
		mcp.WithDescription("Get the last board view, accumulated events and pending decision without submitting anything. Read-only."),
	)
}

func stopGameTool() mcp.Tool {
	return mcp.NewTool("stop_game",
		mcp.WithDescription("Shut the match server down and release the seat."),
	)
}

// --- Tool handlers ---

func (t *Toolset) session() *GameSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Toolset) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		return mcp.NewToolResultError("A game server is already running. Use stop_game first."), nil
	}

	addr := request.GetString("address", t.address)
	sess := NewGameSession()
	deps, release, err := t.build(ctx, sess, sess.Policy())
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start game: %v", err), nil
	}

	srvCtx, cancel := context.WithCancel(context.Background())
	srv := fnet.NewServer(deps)
	go func() {
		if err := srv.ListenAndServe(srvCtx, addr); err != nil {
			t.logger.Error("match server stopped", zap.Error(err))
		}
	}()

	t.active = sess
	t.stop = func() {
		cancel()
		release()
	}
	t.logger.Info("mcp game server started", zap.String("addr", addr))
	return mcp.NewToolResultText(respondJSON(&ToolResponse{Events: []EventView{}, Address: addr})), nil
}

func (t *Toolset) handleWaitForTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := t.session()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}
	resp, err := sess.waitForPending(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Error waiting for next decision: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (t *Toolset) handleSubmitMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := t.session()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}

	mv, err := moveFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sess.respond(ctx, mv); err != nil {
		if errors.Is(err, errNotPending) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultErrorf("Could not submit move: %v", err), nil
	}

	resp, err := sess.waitForPending(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Error waiting for next decision: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func moveFromRequest(request mcp.CallToolRequest) (opponent.Move, error) {
	if raw := request.GetString("move_json", ""); raw != "" {
		return opponent.ParseMove(raw)
	}
	action := strings.ToUpper(request.GetString("action", ""))
	if action == "" {
		return opponent.Move{}, errors.New("either action or move_json is required")
	}
	return opponent.Move{
		Action:        action,
		CardID:        request.GetString("card_id", ""),
		HandIndex:     optInt(request, "index"),
		AttackerIndex: optInt(request, "attacker_index"),
		UnitIndex:     optInt(request, "unit_index"),
		TargetIndex:   optInt(request, "target_index"),
	}, nil
}

func (t *Toolset) handleGetGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := t.session()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}
	return mcp.NewToolResultText(respondJSON(sess.snapshot())), nil
}

func (t *Toolset) handleStopGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return mcp.NewToolResultError("No game is running."), nil
	}
	t.stop()
	t.active = nil
	t.stop = nil
	return mcp.NewToolResultText("stopped"), nil
}

// Close stops a running game server.
func (t *Toolset) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		t.stop()
		t.stop = nil
		t.active = nil
	}
}

// optInt reads an optional numeric argument.
func optInt(request mcp.CallToolRequest, name string) *int {
	switch v := request.GetArguments()[name].(type) {
	case float64:
		i := int(v)
		return &i
	case int:
		return &v
	}
	return nil
}
