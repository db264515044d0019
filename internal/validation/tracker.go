// Package validation tracks which story sections of each selected use case
// have been accepted. It is the only gate for export.
package validation

import (
	"context"
	"fmt"
	"sort"

	"github.com/BerylCAtieno/storycraft-agent/internal/models"
	"github.com/BerylCAtieno/storycraft-agent/internal/session"
)

// StorageKey is where the state map lives inside a session.
const StorageKey = "storycraft_validation_states"

type Sections struct {
	Problem  bool `json:"problem"`
	Solution bool `json:"solution"`
	Impact   bool `json:"impact"`
}

func (s Sections) all() bool { return s.Problem && s.Solution && s.Impact }

func (s *Sections) set(section models.Section, ok bool) error {
	switch section {
	case models.SectionProblem:
		s.Problem = ok
	case models.SectionSolution:
		s.Solution = ok
	case models.SectionImpact:
		s.Impact = ok
	default:
		return fmt.Errorf("unknown section %q", section)
	}
	return nil
}

func (s Sections) Get(section models.Section) bool {
	switch section {
	case models.SectionProblem:
		return s.Problem
	case models.SectionSolution:
		return s.Solution
	case models.SectionImpact:
		return s.Impact
	}
	return false
}

type State struct {
	UseCaseKey       models.UseCaseKey `json:"useCaseKey"`
	UseCaseName      string            `json:"useCaseName"`
	UseCaseCategory  models.Category   `json:"useCaseCategory"`
	ValidationState  Sections          `json:"validationState"`
	IsFullyValidated bool              `json:"isFullyValidated"`
}

type Summary struct {
	TotalUseCases     int  `json:"totalUseCases"`
	ValidatedUseCases int  `json:"validatedUseCases"`
	AllValidated      bool `json:"allValidated"`
}

// Tracker reads and writes the state map of one session. Each call loads
// the map from the store, so state survives process restarts when the
// store does.
type Tracker struct {
	store     session.Store
	sessionID string
}

func NewTracker(store session.Store, sessionID string) *Tracker {
	return &Tracker{store: store, sessionID: sessionID}
}

func (t *Tracker) load(ctx context.Context) (map[models.UseCaseKey]State, error) {
	states := map[models.UseCaseKey]State{}
	if _, err := t.store.Load(ctx, t.sessionID, StorageKey, &states); err != nil {
		return nil, fmt.Errorf("load validation states: %w", err)
	}
	return states, nil
}

func (t *Tracker) save(ctx context.Context, states map[models.UseCaseKey]State) error {
	if err := t.store.Save(ctx, t.sessionID, StorageKey, states); err != nil {
		return fmt.Errorf("save validation states: %w", err)
	}
	return nil
}

// Initialize creates a zeroed entry for key. Existing entries are left
// untouched.
func (t *Tracker) Initialize(ctx context.Context, key models.UseCaseKey, name string, category models.Category) error {
	states, err := t.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := states[key]; ok {
		return nil
	}
	states[key] = State{UseCaseKey: key, UseCaseName: name, UseCaseCategory: category}
	return t.save(ctx, states)
}

// UpdateSection sets one section flag and reports whether the fully
// validated status flipped. Unknown keys are ignored.
func (t *Tracker) UpdateSection(ctx context.Context, key models.UseCaseKey, section models.Section, ok bool) (bool, error) {
	states, err := t.load(ctx)
	if err != nil {
		return false, err
	}
	st, found := states[key]
	if !found {
		return false, nil
	}
	if err := st.ValidationState.set(section, ok); err != nil {
		return false, err
	}
	was := st.IsFullyValidated
	st.IsFullyValidated = st.ValidationState.all()
	states[key] = st
	if err := t.save(ctx, states); err != nil {
		return false, err
	}
	return was != st.IsFullyValidated, nil
}

func (t *Tracker) State(ctx context.Context, key models.UseCaseKey) (State, bool, error) {
	states, err := t.load(ctx)
	if err != nil {
		return State{}, false, err
	}
	st, ok := states[key]
	return st, ok, nil
}

func (t *Tracker) IsValidated(ctx context.Context, key models.UseCaseKey) (bool, error) {
	st, _, err := t.State(ctx, key)
	return st.IsFullyValidated, err
}

// AllValidated is false for an empty key list.
func (t *Tracker) AllValidated(ctx context.Context, keys []models.UseCaseKey) (bool, error) {
	if len(keys) == 0 {
		return false, nil
	}
	states, err := t.load(ctx)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if !states[k].IsFullyValidated {
			return false, nil
		}
	}
	return true, nil
}

func (t *Tracker) Summary(ctx context.Context) (Summary, error) {
	states, err := t.load(ctx)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{TotalUseCases: len(states)}
	for _, st := range states {
		if st.IsFullyValidated {
			s.ValidatedUseCases++
		}
	}
	s.AllValidated = s.TotalUseCases > 0 && s.ValidatedUseCases == s.TotalUseCases
	return s, nil
}

// Validated returns the fully validated entries ordered by key.
func (t *Tracker) Validated(ctx context.Context) ([]State, error) {
	states, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]State, 0, len(states))
	for _, st := range states {
		if st.IsFullyValidated {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UseCaseKey < out[j].UseCaseKey })
	return out, nil
}

func (t *Tracker) Clear(ctx context.Context) error {
	return t.store.Delete(ctx, t.sessionID, StorageKey)
}

// Retain drops every entry whose key is not in keys.
func (t *Tracker) Retain(ctx context.Context, keys []models.UseCaseKey) error {
	states, err := t.load(ctx)
	if err != nil {
		return err
	}
	keep := make(map[models.UseCaseKey]bool, len(keys))
	for _, k := range keys {
		keep[k] = true
	}
	dropped := false
	for k := range states {
		if !keep[k] {
			delete(states, k)
			dropped = true
		}
	}
	if !dropped {
		return nil
	}
	return t.save(ctx, states)
}
