// Package registry keeps the live forms of the server. The model package has no
// locking of its own; every access to a registered form goes through here.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
)

var ErrNotFound = errors.New("form not found")

// Persister stores form snapshots. database.Store satisfies it.
type Persister interface {
	SaveForm(ctx context.Context, form model.FormSnapshot) error
	DeleteForm(ctx context.Context, id model.FormID) error
	LoadForms(ctx context.Context) ([]model.FormSnapshot, error)
}

type entry struct {
	mu   sync.Mutex
	form *model.Form
	seq  int
}

type Registry struct {
	mu      sync.RWMutex
	forms   map[model.FormID]*entry
	seq     int
	persist Persister
}

// New returns an empty registry. persist may be nil for a purely in-memory one.
func New(persist Persister) *Registry {
	return &Registry{forms: map[model.FormID]*entry{}, persist: persist}
}

// Load fills the registry from the persister. Forms that cannot be restored are
// logged and skipped.
func (r *Registry) Load(ctx context.Context) error {
	if r.persist == nil {
		return nil
	}
	snapshots, err := r.persist.LoadForms(ctx)
	if err != nil {
		return err
	}
	loaded := 0
	for _, s := range snapshots {
		form, err := model.RestoreForm(s)
		if err != nil {
			log.WithError(err).WithField("form", s.ID).Error("registry.load: stored form skipped")
			continue
		}
		if err := form.Validate(); err != nil {
			log.WithFields(log.Fields{"form": form.ID()}).Warn("stored form has blocking problems: ", err)
		}
		r.add(form)
		loaded++
	}
	log.WithFields(log.Fields{"forms": loaded, "skipped": len(snapshots) - loaded}).Info("forms loaded")
	return nil
}

func (r *Registry) add(form *model.Form) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.forms[form.ID()] = &entry{form: form, seq: r.seq}
}

// Create registers a new form and persists it.
func (r *Registry) Create(ctx context.Context, form *model.Form) error {
	if r.persist != nil {
		if err := r.persist.SaveForm(ctx, form.Snapshot()); err != nil {
			return err
		}
	}
	r.add(form)
	return nil
}

func (r *Registry) lookup(id model.FormID) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.forms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Update runs fn under the form's writer lock. When fn succeeds the new state is
// persisted; when fn or persistence fails the form is rolled back to its state
// before the call.
func (r *Registry) Update(ctx context.Context, id model.FormID, fn func(*model.Form) error) (model.FormSnapshot, error) {
	e, err := r.lookup(id)
	if err != nil {
		return model.FormSnapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.form.Clone()
	if err := fn(work); err != nil {
		return model.FormSnapshot{}, err
	}
	snapshot := work.Snapshot()
	if r.persist != nil {
		if err := r.persist.SaveForm(ctx, snapshot); err != nil {
			return model.FormSnapshot{}, err
		}
	}
	e.form = work
	return snapshot, nil
}

// View runs fn under the form's lock. fn must not keep references to the form.
func (r *Registry) View(id model.FormID, fn func(*model.Form)) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.form)
	return nil
}

func (r *Registry) Get(id model.FormID) (model.FormSnapshot, error) {
	var snapshot model.FormSnapshot
	err := r.View(id, func(f *model.Form) { snapshot = f.Snapshot() })
	return snapshot, err
}

// Session returns a private copy of the form for one submission. Unblocking done
// while answering the copy never reaches the registered form.
func (r *Registry) Session(id model.FormID) (*model.Form, error) {
	var session *model.Form
	err := r.View(id, func(f *model.Form) { session = f.Clone() })
	return session, err
}

// List returns snapshots of all forms in creation order.
func (r *Registry) List() []model.FormSnapshot {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.forms))
	for _, e := range r.forms {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]model.FormSnapshot, len(entries))
	for i, e := range entries {
		e.mu.Lock()
		out[i] = e.form.Snapshot()
		e.mu.Unlock()
	}
	return out
}

func (r *Registry) Delete(ctx context.Context, id model.FormID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.forms[id]; !ok {
		return ErrNotFound
	}
	if r.persist != nil {
		if err := r.persist.DeleteForm(ctx, id); err != nil {
			return err
		}
	}
	delete(r.forms, id)
	return nil
}
