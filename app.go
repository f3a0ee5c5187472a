package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/schedule/pkg/config"
	"github.com/harrisonrobin/schedule/pkg/log"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/schedule"
	"github.com/harrisonrobin/schedule/pkg/store"
)

type app struct {
	cfg   *config.Config
	db    *store.DB
	store *store.StateStore
	state *schedule.State
	// day is the live day after catch-up.
	day time.Time
	in  *bufio.Reader
	out io.Writer
}

// withApp wraps a command so it runs against caught-up state, and persists
// the state when it succeeds.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		log.SetLevel(cfg.LogLevel)
		if calendarName != "" {
			cfg.Calendar = calendarName
		}

		a, err := open(ctx, cfg, time.Now())
		if err != nil {
			return err
		}
		defer a.close()
		a.out = cmd.OutOrStdout()
		a.in = bufio.NewReader(cmd.InOrStdin())

		if err := fn(ctx, a, args); err != nil {
			return err
		}
		return a.save(ctx)
	}
}

// open loads the saved state and replays every day missed since the last
// run. Each replayed day is saved before the next one is folded.
func open(ctx context.Context, cfg *config.Config, now time.Time) (*app, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	st := store.NewStateStore(db)

	today := model.Day(now)
	s, err := st.Load(ctx, today)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}
	s.MaxGroupTasks = cfg.GroupCap()

	report, err := s.Advance(ctx, today, st)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("catch up: %w", err)
	}
	if report.Days > 0 {
		log.Info().Int("days", report.Days).Str("today", model.FormatDay(s.LastDate)).Msg("caught up")
	}
	for _, name := range sortedKeys(report.Corrupted) {
		fmt.Fprintf(os.Stderr, "warning: history of %q is corrupt and was not updated: %v\n", name, report.Corrupted[name])
	}

	return &app{
		cfg:   cfg,
		db:    db,
		store: st,
		state: s,
		day:   s.LastDate,
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
	}, nil
}

func (a *app) save(ctx context.Context) error {
	a.state.SelectToday(a.day)
	return a.store.Save(ctx, a.state)
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing database")
	}
}

func (a *app) confirm(question string) bool {
	answer := strings.ToLower(a.prompt(question + " [y/N] "))
	return answer == "y" || answer == "yes"
}

func (a *app) prompt(label string) string {
	fmt.Fprint(a.out, label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// offerDelete deletes the given empty groups, asking first unless force is
// set.
func (a *app) offerDelete(groups []string, force bool) error {
	for _, g := range groups {
		if !force && !a.confirm(fmt.Sprintf("Group %s is now empty. Delete it?", g)) {
			continue
		}
		if err := a.state.DeleteGroup(g); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted group %s\n", g)
	}
	return nil
}

func (a *app) mark(task string, oneTime, adding bool, value, delta float64) error {
	switch {
	case oneTime && adding:
		return a.state.AddOneTimeProgress(task, delta)
	case oneTime:
		return a.state.SetOneTimeProgress(task, value)
	case adding:
		return a.state.AddProgress(task, delta)
	default:
		return a.state.SetProgress(task, value)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
