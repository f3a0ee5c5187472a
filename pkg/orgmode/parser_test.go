package orgmode

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/recurrence"
	"github.com/harrisonrobin/schedule/pkg/schedule"
)

const outline = `#+TITLE: routine

* GROUP weekdays
:PROPERTIES:
:DAY: 124
:END:
* GROUP quarterly
:PROPERTIES:
:MONTH: -3
:END:

* TASK floss :weekdays:
:PROPERTIES:
:TYPE: binary
:END:
* TASK water :weekdays:quarterly:
:PROPERTIES:
:TYPE: continuous
:MAX: 8
:DESCRIPTION: glasses of water
:END:
* TASK unfinished :weekdays:
:PROPERTIES:
:TYPE: measured
* Notes
Some text that is not a heading.
`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(outline), "routine.org")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wantGroups := []GroupDef{
		{Name: "weekdays", Rule: recurrence.Rule{Day: 124}},
		{Name: "quarterly", Rule: recurrence.Rule{Month: -3}},
	}
	if !reflect.DeepEqual(doc.Groups, wantGroups) {
		t.Errorf("Groups: want %+v, got %+v", wantGroups, doc.Groups)
	}

	if len(doc.Tasks) != 2 {
		t.Fatalf("Expected 2 closed tasks, got %+v", doc.Tasks)
	}
	water := doc.Tasks[1]
	if water.Name != "water" || water.Type != model.Continuous || water.MaxCount != 8 {
		t.Errorf("Unexpected water task %+v", water)
	}
	if !reflect.DeepEqual(water.Groups, []string{"weekdays", "quarterly"}) {
		t.Errorf("Unexpected water groups %v", water.Groups)
	}
	if water.Description != "glasses of water" {
		t.Errorf("Unexpected description %q", water.Description)
	}
}

func TestParseRejectsBadProperty(t *testing.T) {
	bad := "* TASK floss :daily:\n:PROPERTIES:\n:TYPE: sometimes\n:END:\n"
	_, err := Parse(strings.NewReader(bad), "bad.org")
	if err == nil || !strings.Contains(err.Error(), "bad.org:3") {
		t.Errorf("Expected an error naming bad.org:3, got %v", err)
	}
}

func TestApply(t *testing.T) {
	doc, err := Parse(strings.NewReader(outline), "routine.org")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	doc.Tasks = append(doc.Tasks, model.Task{Name: "orphan", Groups: []string{"missing"}})

	today := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	s := schedule.New(today)
	res, err := Apply(s, doc, today)
	if res.Groups != 2 || res.Tasks != 2 {
		t.Errorf("Unexpected result %+v", res)
	}
	if !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("Expected the orphan to fail with ErrNotFound, got %v", err)
	}
	if !s.Groups["quarterly"].HasTask("water") {
		t.Error("Expected water in quarterly")
	}
}
