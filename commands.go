package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/schedule/pkg/agenda"
	"github.com/harrisonrobin/schedule/pkg/colors"
	"github.com/harrisonrobin/schedule/pkg/config"
	"github.com/harrisonrobin/schedule/pkg/display"
	"github.com/harrisonrobin/schedule/pkg/google"
	"github.com/harrisonrobin/schedule/pkg/index"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/orgmode"
	"github.com/harrisonrobin/schedule/pkg/overdue"
	"github.com/harrisonrobin/schedule/pkg/recurrence"
	"github.com/harrisonrobin/schedule/pkg/schedule"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's tasks",
	Args:  cobra.NoArgs,
	RunE:  withApp(runToday),
}

func runToday(_ context.Context, a *app, _ []string) error {
	fmt.Fprint(a.out, display.Render(display.Today(a.state)))
	return nil
}

var groupFlags struct {
	name string
	rule recurrence.Rule
}

var addGroupCmd = &cobra.Command{
	Use:   "add-group",
	Short: "Create a group with a recurrence rule",
	Long: `Create a group. Each code selects the days the group is active:
  0   always
  >0  bitmask of allowed units (weekday Monday=0, ISO week, month)
  <0  every |code| units counted from the group's last active day`,
	Args: cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		if _, err := a.state.AddGroup(groupFlags.name, groupFlags.rule, a.day); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added group %s\n", groupFlags.name)
		return nil
	}),
}

var setRecurrenceCmd = &cobra.Command{
	Use:   "set-recurrence",
	Short: "Replace the recurrence rule of a group",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		if err := a.state.SetRecurrence(groupFlags.name, groupFlags.rule); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Updated group %s\n", groupFlags.name)
		return nil
	}),
}

var deleteGroupName string

var deleteGroupCmd = &cobra.Command{
	Use:   "delete-group",
	Short: "Delete a group; its tasks stay in the catalog",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		if err := a.state.DeleteGroup(deleteGroupName); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted group %s\n", deleteGroupName)
		return nil
	}),
}

var taskFlags struct {
	name   string
	typ    string
	max    int
	groups string
	desc   string
}

var addTaskCmd = &cobra.Command{
	Use:   "add-task",
	Short: "Add a recurring task to one or more groups",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		tt, err := model.ParseTaskType(taskFlags.typ)
		if err != nil {
			return err
		}
		task := model.Task{
			Name:        taskFlags.name,
			Type:        tt,
			MaxCount:    taskFlags.max,
			Groups:      splitList(taskFlags.groups),
			Description: taskFlags.desc,
		}
		if _, err := a.state.AddTask(task, a.day); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added task %s\n", task.Name)
		return nil
	}),
}

var memberFlags struct {
	task        string
	group       string
	deleteEmpty bool
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Put an existing task under another group",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		return a.state.AddTaskToGroup(memberFlags.task, memberFlags.group)
	}),
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Take a task out of a group",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		empty, err := a.state.RemoveTaskFromGroup(memberFlags.task, memberFlags.group)
		if err != nil {
			return err
		}
		if empty {
			return a.offerDelete([]string{memberFlags.group}, memberFlags.deleteEmpty)
		}
		return nil
	}),
}

var deleteTaskFlags struct {
	name        string
	deleteEmpty bool
}

var deleteTaskCmd = &cobra.Command{
	Use:   "delete-task",
	Short: "Delete a task; its history is kept",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		emptied, err := a.state.DeleteTask(deleteTaskFlags.name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted task %s (its history is kept)\n", deleteTaskFlags.name)
		return a.offerDelete(emptied, deleteTaskFlags.deleteEmpty)
	}),
}

var oneTimeFlags struct {
	name string
	typ  string
	max  int
}

var addOneTimeCmd = &cobra.Command{
	Use:   "add-onetime",
	Short: "Add a task for today only",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		tt, err := model.ParseTaskType(oneTimeFlags.typ)
		if err != nil {
			return err
		}
		if _, err := a.state.AddOneTime(oneTimeFlags.name, tt, oneTimeFlags.max); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added one-time task %s\n", oneTimeFlags.name)
		return nil
	}),
}

var markFlags struct {
	task    string
	value   float64
	add     float64
	oneTime bool
}

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Record today's value of a task",
	Long: `Record today's value of a task. Without --value or --add the task is
marked done (value 1).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adding := cmd.Flags().Changed("add")
		return withApp(func(ctx context.Context, a *app, args []string) error {
			if err := a.mark(markFlags.task, markFlags.oneTime, adding, markFlags.value, markFlags.add); err != nil {
				return err
			}
			return runToday(ctx, a, args)
		})(cmd, args)
	},
}

var historyTask string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the recorded history of a task",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		l, ok := a.state.Ledgers[historyTask]
		if !ok {
			return fmt.Errorf("task %q: %w", historyTask, schedule.ErrNotFound)
		}
		// A deleted task keeps its ledger; show its raw values.
		typ, maxCount := model.Measured, 0
		if t, ok := a.state.Tasks[historyTask]; ok {
			typ, maxCount = t.Type, t.MaxCount
		}
		fmt.Fprint(a.out, display.History(historyTask, typ, maxCount, l))
		return nil
	}),
}

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Add groups and tasks from an Org-mode file",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ context.Context, a *app, _ []string) error {
		doc, err := orgmode.ParseFile(importFile)
		if err != nil {
			return err
		}
		res, err := orgmode.Apply(a.state, doc, a.day)
		fmt.Fprintf(a.out, "Imported %d groups and %d tasks\n", res.Groups, res.Tasks)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipped:\n%v\n", err)
		}
		return nil
	}),
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive loop: show today, mark tasks, quit",
	Args:  cobra.NoArgs,
	RunE:  withApp(runMenu),
}

// runMenu reads one option per line. Every mark is saved right away and
// quitting saves through withApp.
func runMenu(ctx context.Context, a *app, _ []string) error {
	for {
		fmt.Fprint(a.out, "\n[t] today  [m] mark  [q] quit\n> ")
		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch strings.TrimSpace(line) {
		case "t":
			if err := runToday(ctx, a, nil); err != nil {
				return err
			}
		case "m":
			if err := menuMark(a); err != nil {
				fmt.Fprintf(a.out, "error: %v\n", err)
				continue
			}
			if err := a.save(ctx); err != nil {
				return err
			}
		case "q":
			return nil
		default:
			fmt.Fprintln(a.out, "unknown option")
		}
	}
}

func menuMark(a *app) error {
	name := a.prompt("Task: ")
	if name == "" {
		return errors.New("no task given")
	}
	raw := a.prompt("Value (prefix + to add, empty for done): ")

	_, recurring := a.state.Tasks[name]
	if raw == "" {
		return a.mark(name, !recurring, false, 1, 0)
	}
	adding := strings.HasPrefix(raw, "+")
	v, err := strconv.ParseFloat(strings.TrimPrefix(raw, "+"), 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", raw)
	}
	return a.mark(name, !recurring, adding, v, v)
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Optional one-way export of today's tasks to Google Calendar",
	Long: `Export today's tasks as all-day events. This is an optional one-way
export: nothing is read back from the calendar into the task history.
Events pushed for days that have since closed are marked "!" when the task
was not completed.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		idx, err := index.NewEventIndex(dir)
		if err != nil {
			return fmt.Errorf("load event index: %w", err)
		}
		cc, err := colors.NewColorCache(dir)
		if err != nil {
			return fmt.Errorf("load color cache: %w", err)
		}
		pending, err := overdue.NewTable(dir)
		if err != nil {
			return fmt.Errorf("load pending events: %w", err)
		}
		client, err := google.NewClient(ctx, a.cfg.Calendar, idx)
		if err != nil {
			return err
		}

		report, err := agenda.NewPusher(client, idx, cc, pending).Push(ctx, a.state)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Pushed %d events to %s (%d overdue, %d removed)\n",
			report.Synced, a.cfg.Calendar, report.Overdue, report.Pruned)
		for _, key := range sortedKeys(report.Failed) {
			fmt.Fprintf(os.Stderr, "failed %s: %v\n", key, report.Failed[key])
		}
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{addGroupCmd, setRecurrenceCmd} {
		f := c.Flags()
		f.StringVar(&groupFlags.name, "name", "", "group name")
		f.IntVar(&groupFlags.rule.Day, "day", 0, "day code")
		f.IntVar(&groupFlags.rule.Week, "week", 0, "week code")
		f.IntVar(&groupFlags.rule.Month, "month", 0, "month code")
		c.MarkFlagRequired("name")
	}

	deleteGroupCmd.Flags().StringVar(&deleteGroupName, "name", "", "group name")
	deleteGroupCmd.MarkFlagRequired("name")

	f := addTaskCmd.Flags()
	f.StringVar(&taskFlags.name, "name", "", "task name")
	f.StringVar(&taskFlags.typ, "type", "binary", "binary, continuous or measured")
	f.IntVar(&taskFlags.max, "max", 0, "target count of a continuous task")
	f.StringVar(&taskFlags.groups, "groups", "", "comma-separated group names")
	f.StringVar(&taskFlags.desc, "desc", "", "description")
	addTaskCmd.MarkFlagRequired("name")
	addTaskCmd.MarkFlagRequired("groups")

	for _, c := range []*cobra.Command{assignCmd, removeCmd} {
		c.Flags().StringVar(&memberFlags.task, "task", "", "task name")
		c.Flags().StringVar(&memberFlags.group, "group", "", "group name")
		c.MarkFlagRequired("task")
		c.MarkFlagRequired("group")
	}
	removeCmd.Flags().BoolVar(&memberFlags.deleteEmpty, "delete-empty", false, "delete the group if it becomes empty")

	deleteTaskCmd.Flags().StringVar(&deleteTaskFlags.name, "name", "", "task name")
	deleteTaskCmd.Flags().BoolVar(&deleteTaskFlags.deleteEmpty, "delete-empty", false, "delete groups left empty")
	deleteTaskCmd.MarkFlagRequired("name")

	f = addOneTimeCmd.Flags()
	f.StringVar(&oneTimeFlags.name, "name", "", "task name")
	f.StringVar(&oneTimeFlags.typ, "type", "binary", "binary, continuous or measured")
	f.IntVar(&oneTimeFlags.max, "max", 0, "target count of a continuous task")
	addOneTimeCmd.MarkFlagRequired("name")

	f = markCmd.Flags()
	f.StringVar(&markFlags.task, "task", "", "task name")
	f.Float64Var(&markFlags.value, "value", 1, "value to record")
	f.Float64Var(&markFlags.add, "add", 0, "amount to add to today's value")
	f.BoolVar(&markFlags.oneTime, "onetime", false, "mark a one-time task")
	markCmd.MarkFlagRequired("task")
	markCmd.MarkFlagsMutuallyExclusive("value", "add")

	historyCmd.Flags().StringVar(&historyTask, "task", "", "task name")
	historyCmd.MarkFlagRequired("task")

	importCmd.Flags().StringVar(&importFile, "file", "", "Org-mode file")
	importCmd.MarkFlagRequired("file")
}
