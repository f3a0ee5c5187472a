package main

import (
	"bufio"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/recurrence"
	"github.com/harrisonrobin/schedule/pkg/schedule"
)

func newTestApp(t *testing.T, input string) (*app, *strings.Builder) {
	t.Helper()
	today := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	s := schedule.New(today)
	if _, err := s.AddGroup("daily", recurrence.Rule{}, today); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTask(model.Task{Name: "floss", Type: model.Binary, Groups: []string{"daily"}}, today); err != nil {
		t.Fatal(err)
	}
	s.SelectToday(today)

	out := &strings.Builder{}
	return &app{
		state: s,
		day:   today,
		in:    bufio.NewReader(strings.NewReader(input)),
		out:   out,
	}, out
}

func TestMenuShowsTodayThenQuits(t *testing.T) {
	a, out := newTestApp(t, "t\nx\nq\n")
	if err := runMenu(context.Background(), a, nil); err != nil {
		t.Fatalf("runMenu failed: %v", err)
	}
	if !strings.Contains(out.String(), "floss") {
		t.Errorf("Expected today's tasks in the output, got %q", out.String())
	}
	if !strings.Contains(out.String(), "unknown option") {
		t.Errorf("Expected the unknown option reported, got %q", out.String())
	}
}

func TestMenuEndsOnEOF(t *testing.T) {
	a, _ := newTestApp(t, "t\n")
	if err := runMenu(context.Background(), a, nil); err != nil {
		t.Errorf("Expected EOF to end the menu cleanly, got %v", err)
	}
}

func TestPushHelpDescribesOneWayExport(t *testing.T) {
	for _, text := range []string{pushCmd.Short, pushCmd.Long} {
		if !strings.Contains(text, "one-way") {
			t.Errorf("Expected push help to describe a one-way export, got %q", text)
		}
	}
}
