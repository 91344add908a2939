package conditions

import (
	"log"

	"github.com/thornmere/condition-engine/internal/domain/events"
)

// ProcessDamage resolves condition reactions to an incoming damage event of
// the given type: the summed damage modifier percentage, plus removal of any
// condition consumed by the hit (e.g. frozen shattering on fire damage).
func (m *Manager) ProcessDamage(damageType string) *DamageResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := &DamageResult{}
	var consumed []*Instance
	for _, inst := range m.activeSortedLocked(false) {
		for _, di := range m.catalog.DamageInteractionsFor(inst.TemplateID) {
			if di.DamageType != damageType {
				continue
			}
			result.ModifierPercent += di.ModifierPercent
			if di.RemovesCondition {
				consumed = append(consumed, inst)
			}
		}
	}

	for _, inst := range consumed {
		if _, exists := m.instances[inst.TemplateID]; !exists {
			continue
		}
		delete(m.instances, inst.TemplateID)
		result.Removed = append(result.Removed, inst)
		m.emitRemoved(inst, events.OnConditionRemoved)
		log.Printf("[CONDITIONS] %s consumed by %s damage on %s", inst.TemplateID, damageType, m.targetID)
	}

	return result
}
