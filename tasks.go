package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// --- Task Storage ---

// Task is one lunchbox entry.
type Task struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	Completed bool      `json:"completed"`
	Deadline  *Deadline `json:"deadline,omitempty"`
}

type userTasks struct {
	Tasks       []Task    `json:"tasks"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// TaskStore persists tasks in a single JSON file keyed by user ID. The file
// is re-read on every operation and rewritten wholesale on every mutation, so
// external edits are picked up and no cache can go stale.
type TaskStore struct {
	mu   sync.Mutex
	path string
}

func newTaskStore(dataDir string) (*TaskStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &TaskStore{path: filepath.Join(dataDir, "tasks.json")}, nil
}

func (s *TaskStore) load() (map[string]*userTasks, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]*userTasks), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read task store: %w", err)
	}
	all := make(map[string]*userTasks)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse task store: %w", err)
	}
	return all, nil
}

func (s *TaskStore) save(all map[string]*userTasks) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write task store: %w", err)
	}
	return nil
}

// Add stores a new task for the user and returns it with its generated ID.
func (s *TaskStore) Add(userID, content, category string, deadline *Deadline, now time.Time) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return Task{}, err
	}
	ut, ok := all[userID]
	if !ok {
		ut = &userTasks{}
		all[userID] = ut
	}
	task := Task{
		ID:        uuid.NewString(),
		Content:   content,
		Category:  category,
		CreatedAt: now,
		Deadline:  deadline,
	}
	ut.Tasks = append(ut.Tasks, task)
	ut.LastUpdated = now
	if err := s.save(all); err != nil {
		return Task{}, err
	}
	logInfo("task added", "userId", userID, "taskId", task.ID, "content", content)
	return task, nil
}

// Tasks returns the user's tasks sorted by creation time.
func (s *TaskStore) Tasks(userID string) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	ut, ok := all[userID]
	if !ok {
		return nil, nil
	}
	tasks := append([]Task(nil), ut.Tasks...)
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks, nil
}

// Complete marks a task done. The second return is false if the task does not
// exist.
func (s *TaskStore) Complete(userID, taskID string, now time.Time) (bool, error) {
	return s.update(userID, taskID, now, func(t *Task) { t.Completed = true })
}

func (s *TaskStore) update(userID, taskID string, now time.Time, fn func(*Task)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return false, err
	}
	ut, ok := all[userID]
	if !ok {
		return false, nil
	}
	for i := range ut.Tasks {
		if ut.Tasks[i].ID == taskID {
			fn(&ut.Tasks[i])
			ut.LastUpdated = now
			return true, s.save(all)
		}
	}
	return false, nil
}

// Delete removes a task, returning the removed task when found.
func (s *TaskStore) Delete(userID, taskID string, now time.Time) (Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return Task{}, false, err
	}
	ut, ok := all[userID]
	if !ok {
		return Task{}, false, nil
	}
	for i, t := range ut.Tasks {
		if t.ID == taskID {
			ut.Tasks = append(ut.Tasks[:i], ut.Tasks[i+1:]...)
			ut.LastUpdated = now
			if err := s.save(all); err != nil {
				return Task{}, false, err
			}
			logInfo("task deleted", "userId", userID, "taskId", taskID)
			return t, true, nil
		}
	}
	return Task{}, false, nil
}

// ClearCompleted drops every completed task for the user and reports how many
// were removed.
func (s *TaskStore) ClearCompleted(userID string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return 0, err
	}
	ut, ok := all[userID]
	if !ok {
		return 0, nil
	}
	var kept []Task
	for _, t := range ut.Tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(ut.Tasks) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	ut.Tasks = kept
	ut.LastUpdated = now
	if err := s.save(all); err != nil {
		return 0, err
	}
	logInfo("completed tasks cleared", "userId", userID, "removed", removed)
	return removed, nil
}
