package display

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/schedule/pkg/ledger"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/recurrence"
	"github.com/harrisonrobin/schedule/pkg/schedule"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		typ   model.TaskType
		value float64
		max   int
		want  string
	}{
		{model.Binary, 0, 0, "NOT COMPLETED"},
		{model.Binary, 1, 0, "COMPLETED"},
		{model.Continuous, 2, 5, "2/5"},
		{model.Continuous, 5, 5, "COMPLETED"},
		{model.Measured, 71.5, 0, "71.5"},
		{model.Measured, 3, 0, "3"},
	}
	for _, tt := range tests {
		if got := Status(tt.typ, tt.value, tt.max); got != tt.want {
			t.Errorf("Status(%s, %v, %d) = %q, want %q", tt.typ, tt.value, tt.max, got, tt.want)
		}
	}
}

func TestTodayAndRender(t *testing.T) {
	today := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	s := schedule.New(today)
	if _, err := s.AddGroup("daily", recurrence.Rule{}, today); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	for _, task := range []model.Task{
		{Name: "meditate", Type: model.Binary, Groups: []string{"daily"}},
		{Name: "water", Type: model.Continuous, MaxCount: 8, Groups: []string{"daily"}},
	} {
		if _, err := s.AddTask(task, today); err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
	}
	s.SelectToday(today)
	if err := s.SetProgress("meditate", 1); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if err := s.SetProgress("water", 3); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if _, err := s.AddOneTime("dentist", model.Binary, 0); err != nil {
		t.Fatalf("AddOneTime failed: %v", err)
	}

	entry := Today(s)
	if len(entry.Recurring) != 2 || len(entry.OneTime) != 1 {
		t.Fatalf("Unexpected entry: %+v", entry)
	}
	if entry.Recurring[0].Name != "meditate" || !entry.Recurring[0].Done() {
		t.Errorf("Expected meditate completed first, got %+v", entry.Recurring[0])
	}

	out := Render(entry)
	for _, want := range []string{"RECURRING TASKS:", "meditate: ", "water: 3/8", "ONE-TIME TASKS:", "dentist: NOT COMPLETED"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	out := Render(Entry{Date: time.Now()})
	if out != "You have no tasks for today.\n" {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestHistory(t *testing.T) {
	since := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	l := &ledger.Ledger{Since: since, Records: []ledger.Record{
		ledger.Streak(1, 2), ledger.ExcludedRun(1), ledger.Streak(0, 1),
	}}
	out := History("floss", model.Binary, 0, l)
	for _, want := range []string{
		"2024-01-01 .. 2024-01-02: ", "(2 days)",
		"2024-01-03: excluded (1 day)",
		"2024-01-04: NOT COMPLETED (1 day)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected history to contain %q, got:\n%s", want, out)
		}
	}
}
