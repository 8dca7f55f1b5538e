package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
)

// Items provides CRUD access to the four HabitFlow lists and the registered
// push tokens.
type Items struct {
	db *sql.DB
}

func NewItems(db *sql.DB) *Items {
	return &Items{db: db}
}

// --- Reminders ---

func (s *Items) ListReminders(ctx context.Context) ([]habitflow.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, date, time, repeat FROM reminders ORDER BY date ASC, time ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []habitflow.Reminder
	for rows.Next() {
		var r habitflow.Reminder
		if err := rows.Scan(&r.ID, &r.Text, &r.Date, &r.Time, &r.Repeat); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *Items) GetReminder(ctx context.Context, id int64) (*habitflow.Reminder, error) {
	var r habitflow.Reminder
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, date, time, repeat FROM reminders WHERE id = ?`, id,
	).Scan(&r.ID, &r.Text, &r.Date, &r.Time, &r.Repeat)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reminder %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &r, nil
}

func (s *Items) AddReminder(ctx context.Context, r habitflow.Reminder) (*habitflow.Reminder, error) {
	if r.Repeat == "" {
		r.Repeat = habitflow.RepeatNone
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (text, date, time, repeat) VALUES (?, ?, ?, ?)`,
		r.Text, r.Date, r.Time, r.Repeat)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reminder: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted ID: %w", err)
	}
	return &r, nil
}

func (s *Items) UpdateReminder(ctx context.Context, r habitflow.Reminder) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET text = ?, date = ?, time = ?, repeat = ? WHERE id = ?`,
		r.Text, r.Date, r.Time, r.Repeat, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("reminder %d not found", r.ID)
	}
	return nil
}

func (s *Items) DeleteReminder(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("reminder %d not found", id)
	}
	return nil
}

// --- Tasks ---

func (s *Items) ListTasks(ctx context.Context) ([]habitflow.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, status, tag, date FROM tasks ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []habitflow.Task
	for rows.Next() {
		var t habitflow.Task
		if err := rows.Scan(&t.ID, &t.Text, &t.Status, &t.Tag, &t.Date); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Items) AddTask(ctx context.Context, t habitflow.Task) (*habitflow.Task, error) {
	if t.Status == "" {
		t.Status = habitflow.StatusNotStarted
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (text, status, tag, date) VALUES (?, ?, ?, ?)`,
		t.Text, t.Status, t.Tag, t.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted ID: %w", err)
	}
	return &t, nil
}

func (s *Items) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("task %d not found", id)
	}
	return nil
}

// --- Goals ---

func (s *Items) ListGoals(ctx context.Context) ([]habitflow.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, priority, date FROM goals ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []habitflow.Goal
	for rows.Next() {
		var g habitflow.Goal
		if err := rows.Scan(&g.ID, &g.Text, &g.Priority, &g.Date); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Items) AddGoal(ctx context.Context, g habitflow.Goal) (*habitflow.Goal, error) {
	if g.Priority == "" {
		g.Priority = habitflow.PriorityMedium
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (text, priority, date) VALUES (?, ?, ?)`,
		g.Text, g.Priority, g.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to insert goal: %w", err)
	}
	g.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted ID: %w", err)
	}
	return &g, nil
}

func (s *Items) DeleteGoal(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("goal %d not found", id)
	}
	return nil
}

// --- Habits ---

func (s *Items) ListHabits(ctx context.Context) ([]habitflow.Habit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, streak, date FROM habits ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []habitflow.Habit
	for rows.Next() {
		var h habitflow.Habit
		if err := rows.Scan(&h.ID, &h.Text, &h.Streak, &h.Date); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Items) AddHabit(ctx context.Context, h habitflow.Habit) (*habitflow.Habit, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO habits (text, streak, date) VALUES (?, ?, ?)`,
		h.Text, h.Streak, h.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to insert habit: %w", err)
	}
	h.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted ID: %w", err)
	}
	return &h, nil
}

func (s *Items) DeleteHabit(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("habit %d not found", id)
	}
	return nil
}

// --- Push tokens ---

func (s *Items) SaveToken(ctx context.Context, token, clientID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_tokens (token, client_id, created_at) VALUES (?, ?, ?)
			ON CONFLICT (token) DO UPDATE SET client_id = excluded.client_id`,
		token, clientID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save push token: %w", err)
	}
	return nil
}

func (s *Items) ListTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM push_tokens ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
