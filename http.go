package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// --- Admin HTTP API ---

// App bundles the stores the HTTP layer and the chat layer operate on.
type App struct {
	Extractor    *Extractor
	Tasks        *TaskStore
	Calendar     *CalendarStore
	CalendarSync *CalendarSyncStore
	Reminders    *ReminderStore
	Timers       *TimerStore
	Timezones    *TimezoneStore
	Categorizer  *Categorizer
	Notify       NotifyFunc
	TimerNotify  TimerNotifyFunc
	Now          func() time.Time
}

// AddTask runs the full intake path: extract, categorize, store, schedule.
// The reference time is taken in the user's zone so day words resolve against
// their calendar day.
func (a *App) AddTask(c *gin.Context, userID, text string) (Task, error) {
	now := a.Now().In(a.Timezones.Location(userID))
	result := a.Extractor.Extract(text, now)
	category := a.Categorizer.Categorize(c.Request.Context(), result.Title)

	task, err := a.Tasks.Add(userID, result.Title, category, result.Deadline, now)
	if err != nil {
		return Task{}, err
	}
	if result.Deadline != nil {
		a.Reminders.Schedule(userID, task.ID, task.Content, result.Deadline.Instant, a.Notify, now)
	}
	return task, nil
}

func newRouter(app *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/tasks/:user", func(c *gin.Context) {
		tasks, err := app.Tasks.Tasks(c.Param("user"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if tasks == nil {
			tasks = []Task{}
		}
		c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
	})

	api.POST("/tasks/:user", func(c *gin.Context) {
		var body struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
			return
		}
		task, err := app.AddTask(c, c.Param("user"), body.Text)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, task)
	})

	api.DELETE("/tasks/:user/:id", func(c *gin.Context) {
		task, found, err := app.Tasks.Delete(c.Param("user"), c.Param("id"), app.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		app.Reminders.Cancel(task.ID)
		c.JSON(http.StatusOK, task)
	})

	api.POST("/tasks/:user/:id/complete", func(c *gin.Context) {
		ok, err := app.Tasks.Complete(c.Param("user"), c.Param("id"), app.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		app.Reminders.Cancel(c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"completed": true})
	})

	api.GET("/reminders/:user", func(c *gin.Context) {
		reminders := app.Reminders.ListForOwner(c.Param("user"))
		if reminders == nil {
			reminders = []ReminderInfo{}
		}
		c.JSON(http.StatusOK, gin.H{"reminders": reminders, "count": len(reminders)})
	})

	api.DELETE("/reminders/:user", func(c *gin.Context) {
		cancelled := app.Reminders.CancelAllForOwner(c.Param("user"))
		c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
	})

	api.GET("/timers/:user", func(c *gin.Context) {
		timers := app.Timers.ListForOwner(c.Param("user"))
		if timers == nil {
			timers = []Timer{}
		}
		c.JSON(http.StatusOK, gin.H{"timers": timers, "count": len(timers)})
	})

	api.POST("/timers/:user", func(c *gin.Context) {
		var body struct {
			Label    string `json:"label" binding:"required"`
			Duration string `json:"duration" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "label and duration are required"})
			return
		}
		d, err := time.ParseDuration(body.Duration)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad duration: " + body.Duration})
			return
		}
		timer, err := app.Timers.Start(c.Param("user"), body.Label, d, app.TimerNotify)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, timer)
	})

	api.DELETE("/timers/:user/:id", func(c *gin.Context) {
		if !app.Timers.Cancel(c.Param("id")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "timer not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
	})

	api.GET("/events/:user", func(c *gin.Context) {
		var from, to *time.Time
		if v := c.Query("from"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				from = &t
			}
		}
		if v := c.Query("to"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				to = &t
			}
		}
		events, err := app.Calendar.Events(c.Param("user"), from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if events == nil {
			events = []CalendarEvent{}
		}
		c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
	})

	api.POST("/events/:user/import", func(c *gin.Context) {
		var body struct {
			ICS string `json:"ics" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ics is required"})
			return
		}
		userID := c.Param("user")
		now := app.Now()
		added, skipped, err := app.Calendar.ImportICS(userID, body.ICS, now)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Every upcoming event gets the standard deadline offsets. Re-imports
		// are safe: scheduling the same event ID replaces its reminders.
		if events, err := app.Calendar.Events(userID, &now, nil); err == nil {
			for _, ev := range events {
				ScheduleEventReminders(app.Reminders, userID, ev, app.Notify, now)
			}
		}
		c.JSON(http.StatusOK, gin.H{"added": added, "skipped": skipped})
	})

	api.GET("/calendar-sync/:user", func(c *gin.Context) {
		syncs, err := app.CalendarSync.ListForOwner(c.Param("user"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if syncs == nil {
			syncs = []SyncInfo{}
		}
		c.JSON(http.StatusOK, gin.H{"syncs": syncs, "count": len(syncs)})
	})

	api.POST("/calendar-sync/:user", func(c *gin.Context) {
		var body struct {
			Name     string `json:"name"`
			ICSURL   string `json:"icsUrl" binding:"required"`
			Interval string `json:"interval"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "icsUrl is required"})
			return
		}
		cfg, err := app.CalendarSync.Add(c.Param("user"), body.Name, body.ICSURL, body.Interval)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, cfg)
	})

	api.DELETE("/calendar-sync/:user/:id", func(c *gin.Context) {
		removed, err := app.CalendarSync.Remove(c.Param("user"), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !removed {
			c.JSON(http.StatusNotFound, gin.H{"error": "sync not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": true})
	})

	api.GET("/timezone/:user", func(c *gin.Context) {
		userID := c.Param("user")
		zone := app.Timezones.Get(userID)
		c.JSON(http.StatusOK, gin.H{
			"timezone": zone,
			"offset":   timezoneOffset(app.Timezones.Location(userID), app.Now()),
		})
	})

	api.PUT("/timezone/:user", func(c *gin.Context) {
		var body struct {
			Timezone string `json:"timezone" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "timezone is required"})
			return
		}
		zone, err := app.Timezones.Set(c.Param("user"), body.Timezone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"timezone": zone})
	})

	return r
}
