// Package store implements per-entity JSON persistence for Specs, Tasks,
// and Sessions, an OrchestratorState snapshot with dry-run plan printing, a
// timestamped backup adapter, a ReDoS-guarded completion pattern detector,
// and the Markdown escalation log writer.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aad-go/aad/internal/atomicfile"
	"github.com/aad-go/aad/internal/errs"
	"github.com/aad-go/aad/internal/ids"
	"github.com/aad-go/aad/internal/model"
)

// validateID rejects ids containing path-traversal sequences or separators.
func validateID(id string) error {
	if id == "" || strings.Contains(id, "..") || strings.ContainsAny(id, "/\\") {
		return errs.New(errs.KindPathTraversal, fmt.Sprintf("invalid id: %q", id))
	}
	return nil
}

// SpecRepository persists Spec entities as one JSON file per id under dir.
type SpecRepository struct {
	dir string
}

// NewSpecRepository creates a repository rooted at dir (e.g. .aad/data/specs).
func NewSpecRepository(dir string) *SpecRepository {
	return &SpecRepository{dir: dir}
}

func (r *SpecRepository) path(id ids.SpecID) (string, error) {
	if err := validateID(string(id)); err != nil {
		return "", err
	}
	return filepath.Join(r.dir, string(id)+".json"), nil
}

// Save writes spec atomically.
func (r *SpecRepository) Save(spec model.Spec) error {
	path, err := r.path(spec.ID)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteJSON(path, spec); err != nil {
		return errs.Wrap(errs.KindRepository, "saving spec", err)
	}
	return nil
}

// FindByID loads the Spec with the given id.
func (r *SpecRepository) FindByID(id ids.SpecID) (model.Spec, error) {
	var spec model.Spec
	path, err := r.path(id)
	if err != nil {
		return spec, err
	}
	if err := atomicfile.ReadJSON(path, &spec); err != nil {
		return spec, errs.Wrap(errs.KindNotFound, "loading spec "+string(id), err)
	}
	return spec, nil
}

// FindAll loads every persisted Spec.
func (r *SpecRepository) FindAll() ([]model.Spec, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindRepository, "listing specs", err)
	}
	var specs []model.Spec
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := ids.SpecID(strings.TrimSuffix(e.Name(), ".json"))
		spec, err := r.FindByID(id)
		if err != nil {
			continue
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Delete removes the persisted Spec, if present. Idempotent.
func (r *SpecRepository) Delete(id ids.SpecID) error {
	path, err := r.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.KindRepository, "deleting spec", err)
	}
	return nil
}

// TaskRepository persists Task entities as one JSON file per id under dir.
type TaskRepository struct {
	dir string
}

// NewTaskRepository creates a repository rooted at dir (e.g. .aad/data/tasks).
func NewTaskRepository(dir string) *TaskRepository {
	return &TaskRepository{dir: dir}
}

func (r *TaskRepository) path(id ids.TaskID) (string, error) {
	if err := validateID(string(id)); err != nil {
		return "", err
	}
	return filepath.Join(r.dir, string(id)+".json"), nil
}

// Save writes task atomically.
func (r *TaskRepository) Save(task model.Task) error {
	path, err := r.path(task.ID)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteJSON(path, task); err != nil {
		return errs.Wrap(errs.KindRepository, "saving task", err)
	}
	return nil
}

// FindByID loads the Task with the given id.
func (r *TaskRepository) FindByID(id ids.TaskID) (model.Task, error) {
	var task model.Task
	path, err := r.path(id)
	if err != nil {
		return task, err
	}
	if err := atomicfile.ReadJSON(path, &task); err != nil {
		return task, errs.Wrap(errs.KindNotFound, "loading task "+string(id), err)
	}
	return task, nil
}

// FindAll loads every persisted Task.
func (r *TaskRepository) FindAll() ([]model.Task, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindRepository, "listing tasks", err)
	}
	var tasks []model.Task
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := ids.TaskID(strings.TrimSuffix(e.Name(), ".json"))
		task, err := r.FindByID(id)
		if err != nil {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// FindBySpecID loads every persisted Task belonging to specID.
func (r *TaskRepository) FindBySpecID(specID ids.SpecID) ([]model.Task, error) {
	all, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	var out []model.Task
	for _, t := range all {
		if t.SpecID == specID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Delete removes the persisted Task, if present. Idempotent.
func (r *TaskRepository) Delete(id ids.TaskID) error {
	path, err := r.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.KindRepository, "deleting task", err)
	}
	return nil
}

// SessionRepository persists Session entities as one JSON file per id under
// dir.
type SessionRepository struct {
	dir string
}

// NewSessionRepository creates a repository rooted at dir (e.g.
// .aad/data/sessions).
func NewSessionRepository(dir string) *SessionRepository {
	return &SessionRepository{dir: dir}
}

func (r *SessionRepository) path(id ids.SessionID) (string, error) {
	if err := validateID(string(id)); err != nil {
		return "", err
	}
	return filepath.Join(r.dir, string(id)+".json"), nil
}

// Save writes session atomically.
func (r *SessionRepository) Save(session model.Session) error {
	path, err := r.path(session.ID)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteJSON(path, session); err != nil {
		return errs.Wrap(errs.KindRepository, "saving session", err)
	}
	return nil
}

// FindByID loads the Session with the given id.
func (r *SessionRepository) FindByID(id ids.SessionID) (model.Session, error) {
	var session model.Session
	path, err := r.path(id)
	if err != nil {
		return session, err
	}
	if err := atomicfile.ReadJSON(path, &session); err != nil {
		return session, errs.Wrap(errs.KindNotFound, "loading session "+string(id), err)
	}
	return session, nil
}

// FindAll loads every persisted Session.
func (r *SessionRepository) FindAll() ([]model.Session, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindRepository, "listing sessions", err)
	}
	var sessions []model.Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := ids.SessionID(strings.TrimSuffix(e.Name(), ".json"))
		session, err := r.FindByID(id)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// FindBySpecID loads every persisted Session belonging to specID.
func (r *SessionRepository) FindBySpecID(specID ids.SpecID) ([]model.Session, error) {
	all, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	var out []model.Session
	for _, s := range all {
		if s.SpecID == specID {
			out = append(out, s)
		}
	}
	return out, nil
}

// FindActive loads every persisted Session that has not yet ended.
func (r *SessionRepository) FindActive() ([]model.Session, error) {
	all, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	var out []model.Session
	for _, s := range all {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

// Delete removes the persisted Session, if present. Idempotent.
func (r *SessionRepository) Delete(id ids.SessionID) error {
	path, err := r.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.KindRepository, "deleting session", err)
	}
	return nil
}
