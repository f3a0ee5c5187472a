// Package orgmode imports groups and tasks from an Org-mode outline.
//
// Groups are headings of the form "* GROUP name" with :DAY:, :WEEK: and
// :MONTH: properties. Tasks are headings of the form "* TASK name :g1:g2:"
// with :TYPE:, :MAX: and :DESCRIPTION: properties. Each heading is closed by
// its :END: line.
package orgmode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/schedule/pkg/log"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/recurrence"
	"github.com/harrisonrobin/schedule/pkg/schedule"
)

type GroupDef struct {
	Name string
	Rule recurrence.Rule
}

type Document struct {
	Groups []GroupDef
	Tasks  []model.Task
}

var (
	groupRegex    = regexp.MustCompile(`^\*+\s+GROUP\s+(.+?)\s*$`)
	taskRegex     = regexp.MustCompile(`^\*+\s+TASK\s+(.*?)(?:\s+(:[^\s:]+(?::[^\s:]+)*:))?\s*$`)
	propertyRegex = regexp.MustCompile(`^:([A-Z_]+):\s*(.*?)\s*$`)
)

func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads an outline. A heading whose properties cannot be read is an
// error naming the source line.
func Parse(r io.Reader, source string) (*Document, error) {
	log.Debug().Str("source", source).Msg("parsing org file")
	scanner := bufio.NewScanner(r)
	doc := &Document{}

	var group *GroupDef
	var task *model.Task
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if m := groupRegex.FindStringSubmatch(line); m != nil {
			group, task = &GroupDef{Name: m[1]}, nil
			continue
		}
		if m := taskRegex.FindStringSubmatch(line); m != nil {
			group = nil
			task = &model.Task{Name: strings.TrimSpace(m[1])}
			if m[2] != "" {
				task.Groups = strings.Split(strings.Trim(m[2], ":"), ":")
			}
			continue
		}
		if strings.HasPrefix(line, "*") {
			group, task = nil, nil
			continue
		}

		if line == ":END:" {
			if group != nil {
				doc.Groups = append(doc.Groups, *group)
			} else if task != nil {
				doc.Tasks = append(doc.Tasks, *task)
			}
			group, task = nil, nil
			continue
		}

		m := propertyRegex.FindStringSubmatch(line)
		if m == nil || m[1] == "PROPERTIES" {
			continue
		}
		var err error
		switch {
		case group != nil:
			err = setGroupProperty(group, m[1], m[2])
		case task != nil:
			err = setTaskProperty(task, m[1], m[2])
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

func setGroupProperty(g *GroupDef, key, value string) error {
	var target *int
	switch key {
	case "DAY":
		target = &g.Rule.Day
	case "WEEK":
		target = &g.Rule.Week
	case "MONTH":
		target = &g.Rule.Month
	default:
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("group %q: %s must be an integer, got %q", g.Name, key, value)
	}
	*target = n
	return nil
}

func setTaskProperty(t *model.Task, key, value string) error {
	switch key {
	case "TYPE":
		typ, err := model.ParseTaskType(value)
		if err != nil {
			return fmt.Errorf("task %q: %w", t.Name, err)
		}
		t.Type = typ
	case "MAX":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("task %q: MAX must be an integer, got %q", t.Name, value)
		}
		t.MaxCount = n
	case "DESCRIPTION":
		t.Description = value
	}
	return nil
}

type Result struct {
	Groups int
	Tasks  int
}

// Apply adds the document's groups, then its tasks. Entries that cannot be
// added are skipped and reported together in the returned error.
func Apply(s *schedule.State, doc *Document, today time.Time) (Result, error) {
	var res Result
	var errs []error
	for _, g := range doc.Groups {
		if _, err := s.AddGroup(g.Name, g.Rule, today); err != nil {
			errs = append(errs, fmt.Errorf("group %q: %w", g.Name, err))
			continue
		}
		res.Groups++
	}
	for _, t := range doc.Tasks {
		if _, err := s.AddTask(t, today); err != nil {
			errs = append(errs, fmt.Errorf("task %q: %w", t.Name, err))
			continue
		}
		res.Tasks++
	}
	return res, errors.Join(errs...)
}
