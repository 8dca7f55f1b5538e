package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/Musharaf05/HabitFlow/pkg/engine"
	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
	"github.com/Musharaf05/HabitFlow/pkg/push"
	"github.com/Musharaf05/HabitFlow/pkg/storage"
)

// App is the HTTP surface of HabitFlow: the list CRUD consumed by clients,
// the push relay endpoints and the notification status/history views.
type App struct {
	cfg    *Config
	items  *storage.Items
	engine *engine.Engine
	fcm    *push.FCM
	logger *log.Logger
}

func (app *App) startServer() {
	router := app.routes()

	log.Printf("Server listening on http://%s", app.cfg.Server.Addr)
	err := http.ListenAndServe(app.cfg.Server.Addr, router)
	if err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func (app *App) routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Logger)

	// Data feeds
	router.Get("/getReminders", func(w http.ResponseWriter, r *http.Request) {
		reminders, err := app.items.ListReminders(r.Context())
		if err != nil {
			app.serverError(w, err)
			return
		}
		if reminders == nil {
			reminders = []habitflow.Reminder{}
		}
		app.writeJSON(w, http.StatusOK, reminders)
	})

	router.Get("/getTasks", func(w http.ResponseWriter, r *http.Request) {
		tasks, err := app.items.ListTasks(r.Context())
		if err != nil {
			app.serverError(w, err)
			return
		}
		if tasks == nil {
			tasks = []habitflow.Task{}
		}
		app.writeJSON(w, http.StatusOK, tasks)
	})

	router.Get("/getGoals", func(w http.ResponseWriter, r *http.Request) {
		goals, err := app.items.ListGoals(r.Context())
		if err != nil {
			app.serverError(w, err)
			return
		}
		if goals == nil {
			goals = []habitflow.Goal{}
		}
		app.writeJSON(w, http.StatusOK, goals)
	})

	router.Get("/getHabits", func(w http.ResponseWriter, r *http.Request) {
		habits, err := app.items.ListHabits(r.Context())
		if err != nil {
			app.serverError(w, err)
			return
		}
		if habits == nil {
			habits = []habitflow.Habit{}
		}
		app.writeJSON(w, http.StatusOK, habits)
	})

	// Notification views
	router.Get("/getNotificationHistory", func(w http.ResponseWriter, r *http.Request) {
		app.writeJSON(w, http.StatusOK, app.engine.History())
	})

	router.Get("/notificationStatus", func(w http.ResponseWriter, r *http.Request) {
		app.writeJSON(w, http.StatusOK, map[string]any{
			"permissionGranted": app.engine.PermissionGranted(),
			"deliveredToday":    app.engine.DeliveredCount(),
			"historyCount":      len(app.engine.History()),
		})
	})

	// POST /reminder - Create or update a reminder
	router.Post("/reminder", app.handleSaveReminder)

	// DELETE /reminder/{id} - Deletes a reminder
	router.Delete("/reminder/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			app.clientError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := app.items.DeleteReminder(r.Context(), id); err != nil {
			app.clientError(w, http.StatusNotFound, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	router.Post("/task", app.handleAddTask)
	router.Delete("/task/{id}", app.deleteHandler(app.items.DeleteTask))

	router.Post("/goal", app.handleAddGoal)
	router.Delete("/goal/{id}", app.deleteHandler(app.items.DeleteGoal))

	router.Post("/habit", app.handleAddHabit)
	router.Delete("/habit/{id}", app.deleteHandler(app.items.DeleteHabit))

	// Push relay
	router.Post("/save-fcm-token", app.handleSaveToken)
	router.Post("/send-fcm-notification", app.handleSendNotification)

	return router
}

func (app *App) handleSaveReminder(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		ID     int64  `json:"id,omitempty"`
		Text   string `json:"text,omitempty"`
		Date   string `json:"date,omitempty"`
		Time   string `json:"time,omitempty"`
		Repeat string `json:"repeat,omitempty"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		app.clientError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}

	if req.Text == "" {
		app.clientError(w, http.StatusBadRequest, "text is empty")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		app.clientError(w, http.StatusBadRequest, "Failed to parse date: "+err.Error())
		return
	}
	if req.Time != "" {
		parsed, err := time.Parse("15:04", habitflow.NormalizeTime(req.Time))
		if err != nil {
			app.clientError(w, http.StatusBadRequest, "Failed to parse time: "+err.Error())
			return
		}
		// Store the canonical zero-padded form the engine matches against.
		req.Time = parsed.Format("15:04")
	}
	if req.Repeat == "" {
		req.Repeat = habitflow.RepeatNone
	}
	if !validRepeat(req.Repeat) {
		app.clientError(w, http.StatusBadRequest, "invalid repeat: "+req.Repeat)
		return
	}

	reminder := habitflow.Reminder{
		ID:     req.ID,
		Text:   req.Text,
		Date:   req.Date,
		Time:   req.Time,
		Repeat: req.Repeat,
	}

	if reminder.ID > 0 {
		prev, err := app.items.GetReminder(r.Context(), reminder.ID)
		if err != nil {
			app.clientError(w, http.StatusNotFound, err.Error())
			return
		}
		if err := app.items.UpdateReminder(r.Context(), reminder); err != nil {
			app.serverError(w, err)
			return
		}

		// A rescheduled occurrence gets a fresh delivery flag under its new
		// key; drop the old one so editing back and forth stays consistent.
		if prev.Date != reminder.Date || prev.NormalizedTime() != reminder.NormalizedTime() {
			app.engine.ClearDelivered(r.Context(), prev.ID, prev.Date, prev.Time)
		}
		app.writeJSON(w, http.StatusOK, reminder)
		return
	}

	created, err := app.items.AddReminder(r.Context(), reminder)
	if err != nil {
		app.serverError(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, created)
}

func (app *App) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var t habitflow.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		app.clientError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}
	if t.Text == "" {
		app.clientError(w, http.StatusBadRequest, "text is empty")
		return
	}
	created, err := app.items.AddTask(r.Context(), t)
	if err != nil {
		app.serverError(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, created)
}

func (app *App) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var g habitflow.Goal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		app.clientError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}
	if g.Text == "" {
		app.clientError(w, http.StatusBadRequest, "text is empty")
		return
	}
	created, err := app.items.AddGoal(r.Context(), g)
	if err != nil {
		app.serverError(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, created)
}

func (app *App) handleAddHabit(w http.ResponseWriter, r *http.Request) {
	var h habitflow.Habit
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		app.clientError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}
	if h.Text == "" {
		app.clientError(w, http.StatusBadRequest, "text is empty")
		return
	}
	created, err := app.items.AddHabit(r.Context(), h)
	if err != nil {
		app.serverError(w, err)
		return
	}
	app.writeJSON(w, http.StatusOK, created)
}

func (app *App) handleSaveToken(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Token    string `json:"token"`
		ClientID string `json:"client_id,omitempty"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		app.clientError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}
	if req.Token == "" {
		app.clientError(w, http.StatusBadRequest, "token is empty")
		return
	}
	if err := app.items.SaveToken(r.Context(), req.Token, req.ClientID); err != nil {
		app.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	req := &struct {
		Title      string `json:"title"`
		Body       string `json:"body"`
		ReminderID int64  `json:"reminder_id,omitempty"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		app.clientError(w, http.StatusBadRequest, "Error parsing request body: "+err.Error())
		return
	}
	if req.Title == "" {
		app.clientError(w, http.StatusBadRequest, "title is empty")
		return
	}

	sent := 0
	if app.fcm.Enabled() {
		tokens, err := app.items.ListTokens(r.Context())
		if err != nil {
			app.serverError(w, err)
			return
		}
		data := map[string]string{
			"reminder_id": strconv.FormatInt(req.ReminderID, 10),
			"url":         "/dashboard",
		}
		for _, token := range tokens {
			if err := app.fcm.Send(r.Context(), token, req.Title, req.Body, data); err != nil {
				app.logger.Printf("FCM send failed: %v", err)
				continue
			}
			sent++
		}
	} else {
		app.logger.Printf("FCM not configured, dropping relay for reminder %d", req.ReminderID)
	}

	app.writeJSON(w, http.StatusAccepted, map[string]int{"sent": sent})
}

func (app *App) deleteHandler(del func(ctx context.Context, id int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			app.clientError(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := del(r.Context(), id); err != nil {
			app.clientError(w, http.StatusNotFound, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (app *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.Printf("Error encoding response: %v", err)
	}
}

func (app *App) clientError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	w.Write([]byte(msg))
}

func (app *App) serverError(w http.ResponseWriter, err error) {
	app.logger.Printf("Internal error: %v", err)
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(err.Error()))
}

func validRepeat(s string) bool {
	switch s {
	case habitflow.RepeatNone, habitflow.RepeatDaily, habitflow.RepeatWeekly,
		habitflow.RepeatBiWeekly, habitflow.RepeatMonthly:
		return true
	}
	return false
}
