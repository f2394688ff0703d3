package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/calmbox/internal/app/notification"
	"github.com/osa030/calmbox/internal/app/session"
	"github.com/osa030/calmbox/internal/app/session/state"
	"github.com/osa030/calmbox/internal/domain/meditation"
)

// console prints session progress as plain lines.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsole(out io.Writer) *console {
	return &console{out: out}
}

// Send implements notification.Stream.
func (c *console) Send(n *notification.Notification) error {
	line, ok := formatNotification(n)
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, line)
	return err
}

func (c *console) printHelp(plan session.Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if plan == session.PlanMeditation {
		fmt.Fprintln(c.out, "Type q + Enter to stop.")
		return
	}
	fmt.Fprintln(c.out, "Type s + Enter to skip breathing, q + Enter to stop.")
}

// formatNotification returns the line to print for n, or false if n is not shown.
func formatNotification(n *notification.Notification) (string, bool) {
	switch n.Source {
	case notification.SourceBreathing:
		switch n.Kind {
		case "phase_started":
			line := fmt.Sprintf("%-12s %2ds   [%d/%d]", n.Instruction, n.Remaining, n.Repetition+1, n.Total)
			if cue := circleCue(n.Scale); cue != "" {
				line += "  " + cue
			}
			return line, true
		case "completed", "skipped":
			return n.Message, n.Message != ""
		}

	case notification.SourceMeditation:
		switch n.Kind {
		case "started":
			return "Meditating for " + meditation.FormatClock(n.Remaining), true
		case "tick":
			if n.Remaining > 0 && n.Remaining%60 == 0 {
				return "  " + meditation.FormatClock(n.Remaining) + " remaining", true
			}
		case "completed", "recorded":
			return n.Message, n.Message != ""
		case "record_failed":
			if n.Error != "" {
				return fmt.Sprintf("%s (%s)", n.Message, n.Error), true
			}
			return n.Message, n.Message != ""
		}

	case notification.SourceSession:
		if n.Kind == "ended" {
			return n.Message, n.Message != ""
		}
	}

	return "", false
}

// sessionSummary describes how a terminated session ended and how long it ran.
func sessionSummary(info state.Info) string {
	if info.StartTime == nil || info.EndTime == nil {
		return fmt.Sprintf("Session %s.", info.Outcome)
	}
	return fmt.Sprintf("Session %s after %s.", info.Outcome, formatDuration(info.EndTime.Sub(*info.StartTime)))
}

// circleCue draws the breathing circle size as a row of dots.
func circleCue(scale float64) string {
	if scale <= 0 {
		return ""
	}
	return strings.Repeat("o", int(math.Round(scale*4)))
}

// formatDuration renders d as e.g. "45s", "25m" or "1h05m".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		m := int(d / time.Minute)
		if s := int((d % time.Minute) / time.Second); s != 0 {
			return fmt.Sprintf("%dm%02ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%dh%02dm", int(d/time.Hour), int((d%time.Hour)/time.Minute))
	}
}

// sessionControl is the part of the session manager driven by keyboard input.
type sessionControl interface {
	Skip() error
	StopImmediate() error
}

// watchInput maps input lines to session commands until q or EOF.
func watchInput(r io.Reader, ctl sessionControl) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "s", "skip":
			if err := ctl.Skip(); err != nil {
				if errors.Is(err, session.ErrSessionNotRunning) {
					zlog.Debug().Msgf("skip ignored: %v", err)
					continue
				}
				zlog.Error().Err(err).Msg("failed to skip")
			}
		case "q", "quit":
			if err := ctl.StopImmediate(); err != nil {
				zlog.Error().Err(err).Msg("failed to stop session")
			}
			return
		}
	}
}
