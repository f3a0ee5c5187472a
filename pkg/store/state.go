package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harrisonrobin/schedule/pkg/ledger"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/schedule"
)

// StateStore persists a schedule.State as a whole. Every Save is a single
// transaction, so the ledgers and the cursor always move together.
type StateStore struct {
	db *DB
}

func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db}
}

// Load reads the saved state. An empty database yields a new state whose
// live day is today.
func (s *StateStore) Load(ctx context.Context, today time.Time) (*schedule.State, error) {
	var lastDate string
	err := s.db.QueryRowContext(ctx, `SELECT last_date FROM cursor WHERE id = 1`).Scan(&lastDate)
	if err == sql.ErrNoRows {
		return schedule.New(today), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cursor: %w", err)
	}

	st := schedule.New(today)
	if st.LastDate, err = model.ParseDay(lastDate); err != nil {
		return nil, fmt.Errorf("parse cursor date %q: %w", lastDate, err)
	}

	loaders := []func(context.Context, *schedule.State) error{
		s.loadGroups,
		s.loadTasks,
		s.loadMemberships,
		s.loadLedgers,
		s.loadToday,
		s.loadOneTimes,
		s.loadArchive,
	}
	for _, load := range loaders {
		if err := load(ctx, st); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *StateStore) loadGroups(ctx context.Context, st *schedule.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, day_code, week_code, month_code, anchor FROM groups`)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var g model.Group
		var anchor string
		if err := rows.Scan(&g.Name, &g.Day, &g.Week, &g.Month, &anchor); err != nil {
			return fmt.Errorf("scan group: %w", err)
		}
		if g.Anchor, err = model.ParseDay(anchor); err != nil {
			return fmt.Errorf("group %q anchor: %w", g.Name, err)
		}
		st.Groups[g.Name] = &g
	}
	return rows.Err()
}

func (s *StateStore) loadTasks(ctx context.Context, st *schedule.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, max_count, description, created_on FROM tasks`)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t model.Task
		var created string
		if err := rows.Scan(&t.Name, &t.Type, &t.MaxCount, &t.Description, &created); err != nil {
			return fmt.Errorf("scan task: %w", err)
		}
		if t.CreatedOn, err = model.ParseDay(created); err != nil {
			return fmt.Errorf("task %q created_on: %w", t.Name, err)
		}
		st.Tasks[t.Name] = &t
	}
	return rows.Err()
}

func (s *StateStore) loadMemberships(ctx context.Context, st *schedule.State) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name, task_name FROM group_tasks ORDER BY group_name, position
	`)
	if err != nil {
		return fmt.Errorf("list group tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var gn, tn string
		if err := rows.Scan(&gn, &tn); err != nil {
			return fmt.Errorf("scan group task: %w", err)
		}
		g, gok := st.Groups[gn]
		t, tok := st.Tasks[tn]
		if !gok || !tok {
			continue
		}
		g.Tasks = append(g.Tasks, tn)
		t.Groups = append(t.Groups, gn)
	}
	return rows.Err()
}

func (s *StateStore) loadLedgers(ctx context.Context, st *schedule.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT task_name, since FROM ledgers`)
	if err != nil {
		return fmt.Errorf("list ledgers: %w", err)
	}
	for rows.Next() {
		var name, since string
		if err := rows.Scan(&name, &since); err != nil {
			rows.Close()
			return fmt.Errorf("scan ledger: %w", err)
		}
		day, err := model.ParseDay(since)
		if err != nil {
			rows.Close()
			return fmt.Errorf("ledger %q since: %w", name, err)
		}
		st.Ledgers[name] = ledger.New(day)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT task_name, kind, value, count FROM ledger_records ORDER BY task_name, seq
	`)
	if err != nil {
		return fmt.Errorf("list ledger records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var r ledger.Record
		if err := rows.Scan(&name, &r.Kind, &r.Value, &r.Count); err != nil {
			return fmt.Errorf("scan ledger record: %w", err)
		}
		l, ok := st.Ledgers[name]
		if !ok {
			continue
		}
		l.Records = append(l.Records, r)
	}
	return rows.Err()
}

func (s *StateStore) loadToday(ctx context.Context, st *schedule.State) error {
	rows, err := s.db.QueryContext(ctx, `SELECT task_name, value FROM tasks_today`)
	if err != nil {
		return fmt.Errorf("list today's tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return fmt.Errorf("scan today's task: %w", err)
		}
		st.TasksToday[name] = value
	}
	return rows.Err()
}

func (s *StateStore) loadOneTimes(ctx context.Context, st *schedule.State) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, value, max_count FROM one_times ORDER BY position
	`)
	if err != nil {
		return fmt.Errorf("list one-time tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ot model.OneTimeTask
		if err := rows.Scan(&ot.ID, &ot.Name, &ot.Type, &ot.Value, &ot.MaxCount); err != nil {
			return fmt.Errorf("scan one-time task: %w", err)
		}
		st.OneTimes = append(st.OneTimes, ot)
	}
	return rows.Err()
}

func (s *StateStore) loadArchive(ctx context.Context, st *schedule.State) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, day, name, type, value, max_count FROM one_time_archive ORDER BY day, position
	`)
	if err != nil {
		return fmt.Errorf("list archive: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ot model.OneTimeTask
		var day string
		if err := rows.Scan(&ot.ID, &day, &ot.Name, &ot.Type, &ot.Value, &ot.MaxCount); err != nil {
			return fmt.Errorf("scan archived task: %w", err)
		}
		st.Archive[day] = append(st.Archive[day], ot)
	}
	return rows.Err()
}

// Save replaces the stored state with st in one transaction. Archived
// one-time tasks are append-only and never rewritten.
func (s *StateStore) Save(ctx context.Context, st *schedule.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"group_tasks", "groups", "tasks", "ledger_records", "ledgers", "tasks_today", "one_times"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	writers := []func(context.Context, *sql.Tx, *schedule.State) error{
		saveGroups,
		saveTasks,
		saveMemberships,
		saveLedgers,
		saveToday,
		saveOneTimes,
		saveArchive,
	}
	for _, write := range writers {
		if err := write(ctx, tx, st); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cursor (id, last_date) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_date = excluded.last_date
	`, model.FormatDay(st.LastDate))
	if err != nil {
		return fmt.Errorf("write cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func saveGroups(ctx context.Context, tx *sql.Tx, st *schedule.State) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO groups (name, day_code, week_code, month_code, anchor) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare group insert: %w", err)
	}
	defer stmt.Close()
	for _, name := range st.GroupNames() {
		g := st.Groups[name]
		if _, err := stmt.ExecContext(ctx, g.Name, g.Day, g.Week, g.Month, model.FormatDay(g.Anchor)); err != nil {
			return fmt.Errorf("insert group %q: %w", g.Name, err)
		}
	}
	return nil
}

func saveTasks(ctx context.Context, tx *sql.Tx, st *schedule.State) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (name, type, max_count, description, created_on) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare task insert: %w", err)
	}
	defer stmt.Close()
	for _, name := range st.TaskNames() {
		t := st.Tasks[name]
		if _, err := stmt.ExecContext(ctx, t.Name, int(t.Type), t.MaxCount, t.Description, model.FormatDay(t.CreatedOn)); err != nil {
			return fmt.Errorf("insert task %q: %w", t.Name, err)
		}
	}
	return nil
}

func saveMemberships(ctx context.Context, tx *sql.Tx, st *schedule.State) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO group_tasks (group_name, task_name, position) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare group task insert: %w", err)
	}
	defer stmt.Close()
	for _, gn := range st.GroupNames() {
		for i, tn := range st.Groups[gn].Tasks {
			if _, ok := st.Tasks[tn]; !ok {
				continue
			}
			if _, err := stmt.ExecContext(ctx, gn, tn, i); err != nil {
				return fmt.Errorf("insert task %q into group %q: %w", tn, gn, err)
			}
		}
	}
	return nil
}

func saveLedgers(ctx context.Context, tx *sql.Tx, st *schedule.State) error {
	head, err := tx.PrepareContext(ctx, `INSERT INTO ledgers (task_name, since) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare ledger insert: %w", err)
	}
	defer head.Close()
	rec, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_records (task_name, seq, kind, value, count) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare ledger record insert: %w", err)
	}
	defer rec.Close()

	for name, l := range st.Ledgers {
		if l == nil {
			continue
		}
		if _, err := head.ExecContext(ctx, name, model.FormatDay(l.Since)); err != nil {
			return fmt.Errorf("insert ledger %q: %w", name, err)
		}
		for i, r := range l.Records {
			if _, err := rec.ExecContext(ctx, name, i, int(r.Kind), r.Value, r.Count); err != nil {
				return fmt.Errorf("insert ledger record %q/%d: %w", name, i, err)
			}
		}
	}
	return nil
}

func saveToday(ctx context.Context, tx *sql.Tx, st *schedule.State) error {
	for name, value := range st.TasksToday {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tasks_today (task_name, value) VALUES (?, ?)`, name, value); err != nil {
			return fmt.Errorf("insert today's task %q: %w", name, err)
		}
	}
	return nil
}

func saveOneTimes(ctx context.Context, tx *sql.Tx, st *schedule.State) error {
	for i, ot := range st.OneTimes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO one_times (id, name, type, value, max_count, position) VALUES (?, ?, ?, ?, ?, ?)
		`, ot.ID, ot.Name, int(ot.Type), ot.Value, ot.MaxCount, i)
		if err != nil {
			return fmt.Errorf("insert one-time task %q: %w", ot.Name, err)
		}
	}
	return nil
}

func saveArchive(ctx context.Context, tx *sql.Tx, st *schedule.State) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO one_time_archive (id, day, name, type, value, max_count, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare archive insert: %w", err)
	}
	defer stmt.Close()
	for day, tasks := range st.Archive {
		for i, ot := range tasks {
			if _, err := stmt.ExecContext(ctx, ot.ID, day, ot.Name, int(ot.Type), ot.Value, ot.MaxCount, i); err != nil {
				return fmt.Errorf("archive one-time task %q: %w", ot.Name, err)
			}
		}
	}
	return nil
}
