// ABOUTME: Project repository over a key-value store
// ABOUTME: Keeps the ordered project list as one JSON document under a namespace key
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// DefaultNamespace is the store key holding the project list
const DefaultNamespace = "sonic_mapper_projects"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already exists")
	ErrCorruptStore    = errors.New("project store is corrupt")
)

// Repository lists, saves and deletes projects
type Repository struct {
	kv        KV
	namespace string
	mu        sync.Mutex
}

// NewRepository creates a repository. An empty namespace uses DefaultNamespace.
func NewRepository(kv KV, namespace string) *Repository {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Repository{kv: kv, namespace: namespace}
}

func (r *Repository) load() ([]Project, error) {
	data, ok, err := r.kv.Get(r.namespace)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	if !ok || len(data) == 0 {
		return []Project{}, nil
	}

	var projects []Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

func (r *Repository) store(projects []Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	if err := r.kv.Set(r.namespace, data); err != nil {
		return fmt.Errorf("store projects: %w", err)
	}
	return nil
}

// List returns all projects in saved order
func (r *Repository) List() ([]Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Get returns the project with id
func (r *Repository) Get(id string) (*Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	projects, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
}

// Save replaces the project with the same id or appends it
func (r *Repository) Save(p Project) error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProject)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	projects, err := r.load()
	if err != nil {
		return err
	}
	return r.store(upsert(projects, settled(p)))
}

// Delete removes the project with id
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	projects, err := r.load()
	if err != nil {
		return err
	}

	kept := projects[:0]
	for _, p := range projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(projects) {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return r.store(kept)
}

// Import adds a project read from a file. An existing project with the same
// id is replaced only when overwrite is set.
func (r *Repository) Import(p Project, overwrite bool) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	projects, err := r.load()
	if err != nil {
		return err
	}
	if !overwrite {
		for _, existing := range projects {
			if existing.ID == p.ID {
				return fmt.Errorf("%w: %s", ErrProjectExists, p.ID)
			}
		}
	}
	return r.store(upsert(projects, settled(p)))
}

func upsert(projects []Project, p Project) []Project {
	for i := range projects {
		if projects[i].ID == p.ID {
			projects[i] = p
			return projects
		}
	}
	return append(projects, p)
}

// settled clears transient loading flags before a project is persisted
func settled(p Project) Project {
	p = p.Clone()
	for i := range p.Hotspots {
		p.Hotspots[i].IsLoading = false
	}
	return p
}
