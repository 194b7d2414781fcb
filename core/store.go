package pipeline

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/krelja/assist-core/core/events"
)

// debugRunsPerPipeline caps the per-pipeline ring of recorded runs.
const debugRunsPerPipeline = 10

// DebugRun is one recorded run kept for inspection: the full ordered event
// feed plus when the run started.
type DebugRun struct {
	RunID     string
	Timestamp time.Time
	Events    []events.Event
}

// UpdateListener is notified when a stored pipeline is updated or deleted
// while runs referencing it may be in flight.
type UpdateListener func(pipelineID string)

// Store holds pipeline configurations. One pipeline is always the preferred
// one; it is the fallback for runs that do not name a pipeline and it cannot
// be deleted. The store also keeps a bounded ring of recent run event feeds
// per pipeline for debugging.
type Store struct {
	mu        sync.RWMutex
	pipelines map[string]Pipeline
	preferred string

	listeners []UpdateListener

	debugRuns map[string][]DebugRun
}

// NewStore creates a store seeded with the given pipeline as the preferred
// one. The pipeline is assigned an id if it has none.
func NewStore(preferred Pipeline) (*Store, error) {
	if err := preferred.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create pipeline store: %w", err)
	}
	if preferred.ID == "" {
		preferred.ID = newPipelineID()
	}
	return &Store{
		pipelines: map[string]Pipeline{preferred.ID: preferred},
		preferred: preferred.ID,
		debugRuns: map[string][]DebugRun{},
	}, nil
}

// Add stores a new pipeline and returns it with its assigned id.
func (s *Store) Add(p Pipeline) (Pipeline, error) {
	if err := p.Validate(); err != nil {
		return Pipeline{}, err
	}
	if p.ID == "" {
		p.ID = newPipelineID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pipelines[p.ID]; exists {
		return Pipeline{}, fmt.Errorf("pipeline %s already exists", p.ID)
	}
	s.pipelines[p.ID] = p
	return p, nil
}

// Update replaces an existing pipeline and notifies update listeners so that
// in-flight runs can react, e.g. by aborting wake word detection that is
// streaming against the old configuration.
func (s *Store) Update(p Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.pipelines[p.ID]; !exists {
		s.mu.Unlock()
		return NewNotFoundError(p.ID)
	}
	s.pipelines[p.ID] = p
	listeners := make([]UpdateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(p.ID)
	}
	return nil
}

// Delete removes a pipeline. The preferred pipeline cannot be deleted.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if id == s.preferred {
		s.mu.Unlock()
		return fmt.Errorf("cannot delete preferred pipeline %s", id)
	}
	if _, exists := s.pipelines[id]; !exists {
		s.mu.Unlock()
		return NewNotFoundError(id)
	}
	delete(s.pipelines, id)
	delete(s.debugRuns, id)
	listeners := make([]UpdateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(id)
	}
	return nil
}

// Get resolves a pipeline by id. An empty id resolves to the preferred
// pipeline.
func (s *Store) Get(id string) (Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == "" {
		id = s.preferred
	}
	p, ok := s.pipelines[id]
	if !ok {
		return Pipeline{}, NewNotFoundError(id)
	}
	return p, nil
}

// SetPreferred changes which pipeline anonymous runs resolve to.
func (s *Store) SetPreferred(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pipelines[id]; !ok {
		return NewNotFoundError(id)
	}
	s.preferred = id
	return nil
}

// PreferredID returns the id of the preferred pipeline.
func (s *Store) PreferredID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferred
}

// List returns all pipelines ordered by name.
func (s *Store) List() []Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pipelines := make([]Pipeline, 0, len(s.pipelines))
	for _, p := range s.pipelines {
		pipelines = append(pipelines, p)
	}
	sort.Slice(pipelines, func(i, j int) bool { return pipelines[i].Name < pipelines[j].Name })
	return pipelines
}

// OnUpdate registers a listener called after every Update and Delete.
func (s *Store) OnUpdate(listener UpdateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// recordDebugRun appends a finished run to the pipeline's debug ring,
// evicting the oldest entry past the cap.
func (s *Store) recordDebugRun(pipelineID string, run DebugRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pipelines[pipelineID]; !ok {
		return
	}
	runs := append(s.debugRuns[pipelineID], run)
	if len(runs) > debugRunsPerPipeline {
		runs = runs[len(runs)-debugRunsPerPipeline:]
	}
	s.debugRuns[pipelineID] = runs
}

// DebugRuns returns the recorded runs for a pipeline, oldest first.
func (s *Store) DebugRuns(pipelineID string) []DebugRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]DebugRun, len(s.debugRuns[pipelineID]))
	copy(runs, s.debugRuns[pipelineID])
	return runs
}
