package net

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/pterm/pterm"

	"github.com/peterkuimelis/frontline/internal/game"
	"github.com/peterkuimelis/frontline/internal/opponent"
	"github.com/peterkuimelis/frontline/internal/session"
)

var (
	errQuit = errors.New("quit")
	errHelp = errors.New("help")
)

const helpText = `Commands:
  lobby                 list open matches
  host                  open a match and wait for an opponent
  ai                    play against the automated opponent
  join <id|#n>          join a match by id or lobby number
  cancel                cancel your waiting match
  leave                 return to the lobby
  profile               show credits and collection
  play <n>              deploy hand card n
  attack <n> <m|hq>     attack enemy unit m (or the command post) with unit n
  ability <n> [m]       use unit n's ability, optionally on your unit m
  end                   end your turn
  surrender             concede the match
  quit                  exit`

// Client connects to a frontline server and provides a terminal REPL.
type Client struct {
	conn *websocket.Conn
	out  io.Writer

	mu    sync.Mutex
	view  *game.View
	lobby []session.LobbyEntry
}

// Dial connects to url and introduces the player.
func Dial(ctx context.Context, url, userID, name string, out io.Writer) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	c := &Client{conn: conn, out: out}
	if err := c.Send(ctx, ClientMessage{Type: MsgHello, UserID: userID, Name: name}); err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("send hello: %w", err)
	}
	return c, nil
}

func (c *Client) Send(ctx context.Context, msg ClientMessage) error {
	return wsjson.Write(ctx, c.conn, msg)
}

func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}

// RunREPL renders server messages and sends commands read from in until the
// player quits or the connection drops.
func (c *Client) RunREPL(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		for {
			var msg ServerMessage
			if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
				errCh <- err
				return
			}
			c.handle(msg)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(c.out, helpText)
	for {
		select {
		case err := <-errCh:
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		case line, ok := <-lines:
			if !ok {
				return c.Close()
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			c.mu.Lock()
			msg, err := ParseCommand(line, c.lobby)
			c.mu.Unlock()
			switch {
			case errors.Is(err, errQuit):
				return c.Close()
			case errors.Is(err, errHelp):
				fmt.Fprintln(c.out, helpText)
				continue
			case err != nil:
				fmt.Fprint(c.out, pterm.Error.Sprintln(err))
				continue
			}
			if err := c.Send(ctx, msg); err != nil {
				return fmt.Errorf("send command: %w", err)
			}
		}
	}
}

func (c *Client) handle(msg ServerMessage) {
	switch msg.Type {
	case MsgWelcome, MsgProfile:
		if msg.Profile != nil {
			p := msg.Profile
			fmt.Fprint(c.out, pterm.Info.Sprintfln("%s: %d credits, %d wins, %d cards",
				p.Username, p.Credits, p.Wins, len(p.Collection)))
		}
	case MsgHosted:
		fmt.Fprint(c.out, pterm.Info.Sprintfln("Hosting match %s", msg.MatchID))
	case MsgLobby:
		c.mu.Lock()
		c.lobby = msg.Lobby
		c.mu.Unlock()
		fmt.Fprintln(c.out, RenderLobby(msg.Lobby))
	case MsgState:
		if msg.View == nil {
			return
		}
		c.mu.Lock()
		c.view = msg.View
		c.mu.Unlock()
		fmt.Fprintln(c.out, RenderView(*msg.View, msg.Effects))
	case MsgNotice:
		fmt.Fprint(c.out, renderNotice(msg.Notice))
	case MsgError:
		fmt.Fprint(c.out, pterm.Error.Sprintln(msg.Error))
	}
}

// ParseCommand turns a REPL line into a client message. Hand and unit numbers
// are 1-based as displayed; lobby holds the last listing for "join #n".
func ParseCommand(line string, lobby []session.LobbyEntry) (ClientMessage, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return ClientMessage{}, errHelp
	}
	args := fields[1:]
	switch fields[0] {
	case "quit", "exit", "q":
		return ClientMessage{}, errQuit
	case "help", "h", "?":
		return ClientMessage{}, errHelp
	case "lobby", "l":
		return ClientMessage{Type: MsgLobby}, nil
	case "host":
		return ClientMessage{Type: MsgHost}, nil
	case "ai":
		return ClientMessage{Type: MsgHostAI}, nil
	case "cancel":
		return ClientMessage{Type: MsgCancel}, nil
	case "leave":
		return ClientMessage{Type: MsgLeave}, nil
	case "profile":
		return ClientMessage{Type: MsgProfile}, nil
	case "join":
		if len(args) != 1 {
			return ClientMessage{}, errors.New("usage: join <id|#n>")
		}
		id := strings.Fields(line)[1]
		if n, ok := strings.CutPrefix(args[0], "#"); ok {
			i, err := strconv.Atoi(n)
			if err != nil || i < 1 || i > len(lobby) {
				return ClientMessage{}, fmt.Errorf("no lobby entry %s", args[0])
			}
			id = lobby[i-1].MatchID
		}
		return ClientMessage{Type: MsgJoin, MatchID: id}, nil
	case "end", "e":
		mv := opponent.EndTurnMove()
		return ClientMessage{Type: MsgAction, Move: &mv}, nil
	case "surrender":
		mv := opponent.Move{Action: opponent.MoveSurrender}
		return ClientMessage{Type: MsgAction, Move: &mv}, nil
	case "play", "p":
		if len(args) != 1 {
			return ClientMessage{}, errors.New("usage: play <n>")
		}
		n, err := position(args[0])
		if err != nil {
			return ClientMessage{}, err
		}
		mv := opponent.Move{Action: opponent.MovePlayCard, HandIndex: &n}
		return ClientMessage{Type: MsgAction, Move: &mv}, nil
	case "attack", "a":
		if len(args) != 2 {
			return ClientMessage{}, errors.New("usage: attack <n> <m|hq>")
		}
		attacker, err := position(args[0])
		if err != nil {
			return ClientMessage{}, err
		}
		target := game.TargetHQ
		if args[1] != "hq" {
			if target, err = position(args[1]); err != nil {
				return ClientMessage{}, err
			}
		}
		mv := opponent.AttackMove(attacker, target)
		return ClientMessage{Type: MsgAction, Move: &mv}, nil
	case "ability", "ab":
		if len(args) < 1 || len(args) > 2 {
			return ClientMessage{}, errors.New("usage: ability <n> [m]")
		}
		unit, err := position(args[0])
		if err != nil {
			return ClientMessage{}, err
		}
		target := -1
		if len(args) == 2 {
			if target, err = position(args[1]); err != nil {
				return ClientMessage{}, err
			}
		}
		mv := opponent.AbilityMove(unit, target)
		return ClientMessage{Type: MsgAction, Move: &mv}, nil
	}
	return ClientMessage{}, fmt.Errorf("unknown command %q (try help)", fields[0])
}

// position converts a displayed 1-based number to an index.
func position(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a position", s)
	}
	return n - 1, nil
}

// --- Rendering ---

func renderNotice(n *session.Notice) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case session.NoticeRejected:
		return pterm.Warning.Sprintln(n.Message)
	case session.NoticeConnection:
		return pterm.Error.Sprintln(n.Message)
	default:
		return pterm.Info.Sprintln(n.Message)
	}
}

// RenderLobby formats a lobby listing as a table.
func RenderLobby(entries []session.LobbyEntry) string {
	if len(entries) == 0 {
		return pterm.Info.Sprintln("No open matches. Type host to open one.")
	}
	data := pterm.TableData{{"#", "Commander", "Match", "Opened"}}
	for i, e := range entries {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			e.HostName,
			e.MatchID,
			e.CreatedAt.Format("15:04:05"),
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err.Error()
	}
	return out
}

// RenderView draws a match snapshot: opponent summary, both boards and the hand.
func RenderView(v game.View, effects []game.VisualEffect) string {
	var b strings.Builder

	if v.Status == game.StatusWaiting {
		b.WriteString(pterm.DefaultBox.WithTitle("Match " + v.MatchID).Sprint("Waiting for an opponent..."))
		b.WriteString("\n")
		return b.String()
	}

	opp := fmt.Sprintf("%s  HQ %d  Supplies %d  Hand %d",
		pterm.LightRed(v.OpponentName), v.OpponentHP, v.OpponentSupply, v.OpponentHandCount)
	b.WriteString(pterm.DefaultBox.WithTitle("ENEMY").WithTitleTopCenter().Sprint(opp))
	b.WriteString("\n")
	b.WriteString(renderBoard(v.OpponentBoard, effects))
	b.WriteString(renderBoard(v.Board, effects))

	turn := "Enemy turn"
	if v.IsYourTurn {
		turn = pterm.LightGreen("Your turn")
	}
	you := fmt.Sprintf("HQ %d  Supplies %d/%d  Turn %d  %s", v.HP, v.Supply, v.SupplyCap, v.TurnCount, turn)
	b.WriteString(pterm.DefaultBox.WithTitle("YOU").WithTitleTopCenter().Sprint(you))
	b.WriteString("\n")

	if len(v.Hand) > 0 {
		data := pterm.TableData{{"#", "Card", "Cost", "ATK", "DEF", "Text"}}
		for _, c := range v.Hand {
			data = append(data, []string{
				strconv.Itoa(c.Index + 1), c.Name, strconv.Itoa(c.Cost),
				strconv.Itoa(c.Attack), strconv.Itoa(c.Defense), c.Description,
			})
		}
		if out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender(); err == nil {
			b.WriteString(out)
			b.WriteString("\n")
		}
	}
	if v.LastAction != "" {
		b.WriteString(pterm.Info.Sprintln(v.LastAction))
	}
	if v.Status == game.StatusFinished {
		result := "DEFEAT"
		if v.Winner == v.Side {
			result = "VICTORY"
		}
		b.WriteString(pterm.DefaultBox.WithTitle("GAME OVER").Sprint(result))
		b.WriteString("\n")
	}
	return b.String()
}

func renderBoard(units []game.UnitView, effects []game.VisualEffect) string {
	if len(units) == 0 {
		return "  (no units)\n"
	}
	hit := make(map[string]game.FxKind, len(effects))
	for _, e := range effects {
		hit[e.UnitID] = e.Kind
	}
	data := pterm.TableData{{"#", "Unit", "ATK", "HP", "State"}}
	for _, u := range units {
		var state []string
		if u.Destroyed {
			state = append(state, "destroyed")
		} else if u.CanAttack {
			state = append(state, "ready")
		}
		if u.Guard {
			state = append(state, "guard")
		}
		if u.Invulnerable {
			state = append(state, "invulnerable")
		}
		if u.Depleted {
			state = append(state, "depleted")
		}
		if fx, ok := hit[u.InstanceID]; ok {
			state = append(state, "*"+string(fx))
		}
		data = append(data, []string{
			strconv.Itoa(u.Index + 1), u.Name, strconv.Itoa(u.Attack),
			fmt.Sprintf("%d/%d", u.HP, u.MaxHP), strings.Join(state, " "),
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err.Error() + "\n"
	}
	return out + "\n"
}
