// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/pointstream-feed/main.go
// Summary: Interactive terminal feed for watching normalized pointer events.
// Usage: Run inside a terminal; mouse activity on the screen is streamed to
//        the server as raw pointer notifications and the normalized gestures
//        come back and scroll in a live list.
// Notes: The terminal itself plays the role of the managed element; its cell
//        grid is reported as the target bounds.

package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"pointstream/client"
	"pointstream/config"
	"pointstream/protocol"
)

const maxFeedLines = 256

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	socketPath := flag.String("socket", "", "Unix socket path (default: from config)")
	configPath := flag.String("config", "", "Config file path")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("pointstream-feed needs an interactive terminal")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load problem, continuing with defaults: %v\n", err)
	}
	if *socketPath != "" {
		cfg.Socket = *socketPath
	}

	c := client.New(cfg.Socket, "pointstream-feed")
	var sessionID [16]byte
	conn, err := c.Connect(&sessionID)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Socket, err)
	}
	defer conn.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	f := &feed{
		screen:    screen,
		conn:      conn,
		sessionID: sessionID,
	}

	w, h := screen.Size()
	if err := f.reportBounds(w, h); err != nil {
		return err
	}

	go f.gestureLoop()
	return f.eventLoop()
}

// feed owns the terminal screen and the server connection.
type feed struct {
	screen    tcell.Screen
	conn      net.Conn
	sessionID [16]byte

	mu    sync.Mutex
	lines []string

	prevButtons tcell.ButtonMask
}

func (f *feed) reportBounds(w, h int) error {
	return client.SendTarget(f.conn, f.sessionID, protocol.TargetUpdate{
		Kind: "terminal",
		MaxX: float64(w - 1),
		MaxY: float64(h - 1),
	})
}

// gestureLoop receives normalized events, acks them, and feeds the display.
func (f *feed) gestureLoop() {
	for {
		ev, seq, err := client.ReadGesture(f.conn)
		if err != nil {
			f.pushLine(fmt.Sprintf("connection closed: %v", err))
			f.screen.PostEvent(tcell.NewEventInterrupt(nil))
			return
		}
		_ = client.SendAck(f.conn, f.sessionID, seq)

		f.pushLine(formatGesture(ev, seq))
		f.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

func (f *feed) pushLine(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	if len(f.lines) > maxFeedLines {
		f.lines = f.lines[len(f.lines)-maxFeedLines:]
	}
}

func (f *feed) eventLoop() error {
	for {
		switch ev := f.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				_ = client.SendDisconnect(f.conn, f.sessionID, "feed closed")
				return nil
			}
			if ev.Rune() == 'r' {
				_ = client.SendReset(f.conn, f.sessionID)
				f.pushLine("-- reset requested --")
				f.draw()
			}

		case *tcell.EventResize:
			w, h := ev.Size()
			_ = f.reportBounds(w, h)
			f.screen.Sync()
			f.draw()

		case *tcell.EventMouse:
			f.forwardMouse(ev)

		case *tcell.EventInterrupt:
			f.draw()

		case nil:
			return nil
		}
	}
}

// forwardMouse translates one tcell mouse event into raw pointer
// notifications. Button transitions become down/up, everything else is a
// move.
func (f *feed) forwardMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons() & (tcell.Button1 | tcell.Button2 | tcell.Button3)
	pressed := buttons &^ f.prevButtons
	released := f.prevButtons &^ buttons
	f.prevButtons = buttons

	now := float64(time.Now().UnixMilli())
	base := protocol.PointerEvent{
		X: float64(x), Y: float64(y),
		OffsetX: float64(x), OffsetY: float64(y),
		PointerID:   1,
		PointerType: "mouse",
		Buttons:     webButtons(buttons),
		Timestamp:   now,
	}

	for mask, webButton := range buttonNumbers {
		if pressed&mask != 0 {
			raw := base
			raw.Kind = protocol.PointerDown
			raw.Button = webButton
			_ = client.SendPointer(f.conn, f.sessionID, raw)
		}
		if released&mask != 0 {
			raw := base
			raw.Kind = protocol.PointerUp
			raw.Button = webButton
			_ = client.SendPointer(f.conn, f.sessionID, raw)
		}
	}
	if pressed == 0 && released == 0 {
		raw := base
		raw.Kind = protocol.PointerMove
		raw.Button = -1
		_ = client.SendPointer(f.conn, f.sessionID, raw)
	}
}

// buttonNumbers maps tcell buttons to web-style button numbers.
var buttonNumbers = map[tcell.ButtonMask]int16{
	tcell.Button1: 0, // left
	tcell.Button3: 1, // middle
	tcell.Button2: 2, // right
}

// webButtons converts a tcell button mask to the web-style buttons bitmask.
func webButtons(mask tcell.ButtonMask) uint32 {
	var out uint32
	if mask&tcell.Button1 != 0 {
		out |= 1
	}
	if mask&tcell.Button2 != 0 {
		out |= 2
	}
	if mask&tcell.Button3 != 0 {
		out |= 4
	}
	return out
}

func formatGesture(ev protocol.GestureEvent, seq uint64) string {
	return fmt.Sprintf("%6d  %s  id=%d  (%.0f,%.0f)  btn=%d",
		seq, padCell(ev.Callback.String(), 14), ev.PointerID, ev.X, ev.Y, ev.Button)
}

// padCell pads s to a fixed display width so the columns line up even with
// wide runes in the mix.
func padCell(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return runewidth.Truncate(s, width, "…")
	}
	return s + runewidth.FillRight("", width-w)
}

func (f *feed) draw() {
	f.mu.Lock()
	lines := make([]string, len(f.lines))
	copy(lines, f.lines)
	f.mu.Unlock()

	f.screen.Clear()
	w, h := f.screen.Size()

	style := tcell.StyleDefault
	header := padCell(fmt.Sprintf("pointstream feed  session %s  (Esc quits, r resets)", client.FormatUUID(f.sessionID)), w)
	drawText(f.screen, 0, 0, style.Reverse(true), header)

	visible := h - 1
	start := 0
	if len(lines) > visible {
		start = len(lines) - visible
	}
	for i, line := range lines[start:] {
		drawText(f.screen, 0, i+1, style, line)
	}
	f.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		s.SetContent(col, y, r, nil, style)
		col += runewidth.RuneWidth(r)
	}
}
