// Package conditions implements the condition resolution core: applying and
// stacking condition instances on a target, resolving interactions between
// them, aggregating their effects and advancing them through combat rounds.
package conditions

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/thornmere/condition-engine/internal/domain/catalog"
	"github.com/thornmere/condition-engine/internal/domain/events"
	engerr "github.com/thornmere/condition-engine/internal/errors"
	"github.com/thornmere/condition-engine/internal/uuid"
)

// Manager tracks the condition instances of a single target. All methods are
// safe for concurrent use; calls against different targets go through
// different managers and never contend.
type Manager struct {
	mu            sync.RWMutex
	targetID      string
	catalog       *catalog.Catalog
	instances     map[string]*Instance // keyed by template ID
	eventBus      *events.EventBus
	uuidGenerator uuid.Generator
}

// NewManager creates a condition manager for one target
func NewManager(targetID string, cat *catalog.Catalog, eventBus *events.EventBus) *Manager {
	return &Manager{
		targetID:      targetID,
		catalog:       cat,
		instances:     make(map[string]*Instance),
		eventBus:      eventBus,
		uuidGenerator: uuid.NewGoogleUUIDGenerator(),
	}
}

// Apply applies a condition to the target, resolving interactions with the
// conditions already present. A prevented or failed apply mutates nothing.
func (m *Manager) Apply(input *ApplyInput) (*ApplyOutcome, error) {
	if input == nil {
		return nil, engerr.InvalidArgument("apply input cannot be nil")
	}
	tmpl, err := m.catalog.Template(input.TemplateID)
	if err != nil {
		return nil, err
	}

	severity := input.Severity
	if severity == 0 {
		severity = 1
	}
	if severity < 0 {
		return nil, engerr.InvalidArgumentf("severity must be positive, got %d", input.Severity)
	}
	if input.DurationOverride != nil && *input.DurationOverride < 0 {
		return nil, engerr.InvalidArgumentf("duration override must not be negative, got %d", *input.DurationOverride)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Interactions are scanned in ascending template-ID order so that the
	// reported preventer is deterministic when several qualify. Removals
	// are deferred until the whole scan confirms nothing prevents the apply.
	var removeSelf []*Instance
	for _, inst := range m.activeSortedLocked(false) {
		for _, in := range m.catalog.InteractionsOwnedBy(inst.TemplateID) {
			if in.Other != tmpl.ID || in.Trigger != catalog.TriggerOnOtherApplied {
				continue
			}
			switch in.Outcome {
			case catalog.OutcomePreventOther:
				log.Printf("[CONDITIONS] %s prevented on %s by %s", tmpl.ID, m.targetID, inst.TemplateID)
				m.emit(events.NewGameEvent(events.OnConditionPrevented).
					WithContext(events.ContextTargetID, m.targetID).
					WithContext(events.ContextTemplateID, tmpl.ID).
					WithContext(events.ContextPreventedBy, inst.TemplateID))
				return &ApplyOutcome{
					Prevented:   true,
					PreventedBy: inst.TemplateID,
					Message:     fmt.Sprintf("prevented by %s", inst.TemplateID),
				}, nil
			case catalog.OutcomeRemoveSelf:
				removeSelf = append(removeSelf, inst)
			}
		}
	}

	outcome := &ApplyOutcome{Success: true}
	for _, inst := range removeSelf {
		delete(m.instances, inst.TemplateID)
		outcome.Removed = append(outcome.Removed, inst)
		m.emitRemoved(inst, events.OnConditionRemoved)
		log.Printf("[CONDITIONS] %s removed from %s (displaced by %s)", inst.TemplateID, m.targetID, tmpl.ID)
	}

	existing := m.instances[tmpl.ID]
	switch {
	case existing == nil:
		inst := &Instance{
			ID:         m.uuidGenerator.New(),
			TemplateID: tmpl.ID,
			TargetID:   m.targetID,
			Severity:   severity,
			Stacks:     1,
			SourceID:   input.SourceID,
			SourceText: input.SourceText,
			AppliedAt:  time.Now(),
		}
		if input.DurationOverride != nil {
			v := *input.DurationOverride
			inst.RoundsRemaining = &v
		} else {
			inst.RoundsRemaining = tmpl.DefaultRounds()
		}
		if tmpl.HasProgression() {
			inst.StageOrdinal = 1
			if next := tmpl.Stages[0].RoundsToNext; next != nil {
				v := *next
				inst.StageRoundsRemaining = &v
			}
		}
		m.instances[tmpl.ID] = inst
		outcome.Instance = inst
		outcome.StacksAdded = 1
		outcome.Message = "applied"
		m.emitInstance(inst, events.OnConditionApplied)
		log.Printf("[CONDITIONS] Applied %s to %s (severity %d)", tmpl.ID, m.targetID, severity)

	case tmpl.Stackable && existing.Stacks < tmpl.MaxStacks:
		existing.Stacks++
		existing.Severity = severity
		if tmpl.StackBehavior == catalog.StackDuration && existing.RoundsRemaining != nil {
			*existing.RoundsRemaining += tmpl.DurationRounds
		}
		outcome.Instance = existing
		outcome.StacksAdded = 1
		outcome.Message = fmt.Sprintf("stacked to %d", existing.Stacks)
		m.emitInstance(existing, events.OnConditionStacked)
		log.Printf("[CONDITIONS] %s stacked to %d on %s", tmpl.ID, existing.Stacks, m.targetID)

	default:
		// Not stackable or at max stacks: refresh severity and duration.
		// Stage progression is left where it is.
		existing.Severity = severity
		if input.DurationOverride != nil {
			v := *input.DurationOverride
			existing.RoundsRemaining = &v
		} else {
			existing.RoundsRemaining = tmpl.DefaultRounds()
		}
		outcome.Instance = existing
		outcome.Message = "refreshed"
		m.emitInstance(existing, events.OnConditionRefreshed)
		log.Printf("[CONDITIONS] %s refreshed on %s", tmpl.ID, m.targetID)
	}

	return outcome, nil
}

// Remove removes a condition. With removeAllStacks false and more than one
// stack, only one stack is shed and the instance stays. Returns whether an
// instance existed.
func (m *Manager) Remove(templateID string, removeAllStacks bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, exists := m.instances[templateID]
	if !exists {
		return false
	}

	if !removeAllStacks && inst.Stacks > 1 {
		inst.Stacks--
		log.Printf("[CONDITIONS] %s reduced to %d stacks on %s", templateID, inst.Stacks, m.targetID)
		return true
	}

	delete(m.instances, templateID)
	m.emitRemoved(inst, events.OnConditionRemoved)
	log.Printf("[CONDITIONS] Removed %s from %s", templateID, m.targetID)
	return true
}

// RemoveByCategory removes every instance whose template belongs to the
// given category and returns the removed instances
func (m *Manager) RemoveByCategory(categoryID string) ([]*Instance, error) {
	if _, err := m.catalog.Category(categoryID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []*Instance
	for _, inst := range m.sortedLocked() {
		tmpl := m.template(inst.TemplateID)
		if tmpl == nil || tmpl.Category != categoryID {
			continue
		}
		delete(m.instances, inst.TemplateID)
		removed = append(removed, inst)
		m.emitRemoved(inst, events.OnConditionRemoved)
	}
	if len(removed) > 0 {
		log.Printf("[CONDITIONS] Removed %d %s conditions from %s", len(removed), categoryID, m.targetID)
	}
	return removed, nil
}

// ClearAll removes instances in bulk, optionally keeping non-negative
// conditions or restricting to one category. Returns the number removed.
func (m *Manager) ClearAll(onlyNegative bool, onlyCategory string) (int, error) {
	if onlyCategory != "" {
		if _, err := m.catalog.Category(onlyCategory); err != nil {
			return 0, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, inst := range m.sortedLocked() {
		tmpl := m.template(inst.TemplateID)
		if tmpl == nil {
			continue
		}
		if onlyCategory != "" && tmpl.Category != onlyCategory {
			continue
		}
		if onlyNegative {
			cat, err := m.catalog.Category(tmpl.Category)
			if err != nil || !cat.Negative {
				continue
			}
		}
		delete(m.instances, inst.TemplateID)
		count++
		m.emitRemoved(inst, events.OnConditionRemoved)
	}
	if count > 0 {
		log.Printf("[CONDITIONS] Cleared %d conditions from %s", count, m.targetID)
	}
	return count, nil
}

// Suppress mutes a condition without removing it. Suppressed instances keep
// ticking duration and stages but contribute nothing to aggregation,
// interactions or damage. Returns whether an instance existed.
func (m *Manager) Suppress(templateID string) bool {
	return m.setSuppressed(templateID, true)
}

// Unsuppress reactivates a suppressed condition. Returns whether an instance
// existed.
func (m *Manager) Unsuppress(templateID string) bool {
	return m.setSuppressed(templateID, false)
}

func (m *Manager) setSuppressed(templateID string, suppressed bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, exists := m.instances[templateID]
	if !exists {
		return false
	}
	if inst.Suppressed != suppressed {
		inst.Suppressed = suppressed
		m.emit(events.NewGameEvent(events.OnConditionSuppressed).
			WithContext(events.ContextTargetID, m.targetID).
			WithContext(events.ContextTemplateID, templateID).
			WithContext(events.ContextInstanceID, inst.ID).
			WithContext(events.ContextSuppressed, suppressed))
	}
	return true
}

// ActiveConditions returns the target's conditions sorted by template ID.
// Suppressed instances are excluded unless includeSuppressed is set.
func (m *Manager) ActiveConditions(includeSuppressed bool) []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Instance
	for _, inst := range m.activeSortedLocked(includeSuppressed) {
		result = append(result, inst.Clone())
	}
	return result
}

// HasCondition checks whether the target carries the given condition
func (m *Manager) HasCondition(templateID string, includeSuppressed bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, exists := m.instances[templateID]
	if !exists {
		return false
	}
	return includeSuppressed || !inst.Suppressed
}

// Get returns a copy of the instance for the given template, nil if absent
func (m *Manager) Get(templateID string) *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, exists := m.instances[templateID]
	if !exists {
		return nil
	}
	return inst.Clone()
}

// Hydrate replaces the manager's state with persisted instances
func (m *Manager) Hydrate(instances []*Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hydrated := make(map[string]*Instance, len(instances))
	for _, inst := range instances {
		if _, err := m.catalog.Template(inst.TemplateID); err != nil {
			return engerr.Wrapf(err, "cannot hydrate instance %s", inst.ID)
		}
		if _, exists := hydrated[inst.TemplateID]; exists {
			return engerr.InvalidArgumentf("duplicate instance for template '%s' on target '%s'", inst.TemplateID, m.targetID)
		}
		hydrated[inst.TemplateID] = inst.Clone()
	}
	m.instances = hydrated
	return nil
}

// Snapshot returns a copy of all instances, sorted by template ID, for
// persistence
func (m *Manager) Snapshot() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.sortedLocked() {
		snapshot = append(snapshot, inst.Clone())
	}
	return snapshot
}

// sortedLocked returns all instances ordered by template ID. Callers must
// hold the lock.
func (m *Manager) sortedLocked() []*Instance {
	instances := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].TemplateID < instances[j].TemplateID
	})
	return instances
}

// activeSortedLocked returns instances ordered by template ID, skipping
// suppressed ones unless requested. Callers must hold the lock.
func (m *Manager) activeSortedLocked(includeSuppressed bool) []*Instance {
	var instances []*Instance
	for _, inst := range m.sortedLocked() {
		if inst.Suppressed && !includeSuppressed {
			continue
		}
		instances = append(instances, inst)
	}
	return instances
}

func (m *Manager) template(id string) *catalog.Template {
	tmpl, err := m.catalog.Template(id)
	if err != nil {
		return nil
	}
	return tmpl
}

func (m *Manager) emit(event *events.GameEvent) {
	if m.eventBus == nil {
		return
	}
	if err := m.eventBus.Emit(event); err != nil {
		log.Printf("Failed to emit event %s: %v", event.Type, err)
	}
}

func (m *Manager) emitInstance(inst *Instance, eventType events.EventType) {
	m.emit(events.NewGameEvent(eventType).
		WithContext(events.ContextTargetID, m.targetID).
		WithContext(events.ContextTemplateID, inst.TemplateID).
		WithContext(events.ContextInstanceID, inst.ID).
		WithContext(events.ContextStacks, inst.Stacks).
		WithContext(events.ContextSeverity, inst.Severity).
		WithContext(events.ContextSource, inst.SourceText))
}

func (m *Manager) emitRemoved(inst *Instance, eventType events.EventType) {
	m.emit(events.NewGameEvent(eventType).
		WithContext(events.ContextTargetID, m.targetID).
		WithContext(events.ContextTemplateID, inst.TemplateID).
		WithContext(events.ContextInstanceID, inst.ID))
}
