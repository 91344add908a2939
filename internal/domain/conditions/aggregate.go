package conditions

import (
	"math"

	"github.com/thornmere/condition-engine/internal/domain/catalog"
)

// CapabilityStatus reports whether the target can use a capability and the
// summed reduction from active conditions. Stage-scoped effects take
// precedence over template-scoped ones for the same capability and are
// scaled by the stage's severity multiplier, rounded to the nearest integer.
func (m *Manager) CapabilityStatus(capability string) *CapabilityStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := &CapabilityStatus{}
	for _, inst := range m.activeSortedLocked(false) {
		tmpl := m.template(inst.TemplateID)
		if tmpl == nil {
			continue
		}

		var effect *catalog.CapabilityEffect
		multiplier := 1.0
		if inst.StageOrdinal > 0 {
			if e := m.catalog.CapabilityEffectFor(tmpl.ID, inst.StageOrdinal, capability); e != nil {
				effect = e
				if stage := tmpl.StageAt(inst.StageOrdinal); stage != nil {
					multiplier = stage.SeverityMultiplier
				}
			}
		}
		if effect == nil {
			effect = m.catalog.CapabilityEffectFor(tmpl.ID, 0, capability)
			multiplier = 1.0
		}
		if effect == nil {
			continue
		}

		switch effect.Type {
		case catalog.EffectBlocked:
			status.Blocked = true
			status.Blocking = append(status.Blocking, tmpl.ID)
		case catalog.EffectReduced:
			status.ModifierPercent += int(math.Round(float64(effect.ModifierPercent) * multiplier))
		}
	}
	return status
}

// CheckModifier sums the check modifiers of active conditions for one check
// type, with a per-source breakdown. Severity-scaling modifiers multiply by
// the instance's severity.
func (m *Manager) CheckModifier(checkType string) *CheckResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := &CheckResult{}
	for _, inst := range m.activeSortedLocked(false) {
		for _, mod := range m.catalog.CheckModifiersFor(inst.TemplateID) {
			if mod.CheckType != checkType {
				continue
			}
			value := mod.Modifier
			if mod.ScalesWithSeverity {
				value *= inst.Severity
			}
			result.Total += value
			result.Breakdown = append(result.Breakdown, CheckBreakdownEntry{
				TemplateID: inst.TemplateID,
				Value:      value,
			})
		}
	}
	return result
}

// ResistanceModifier sums resistance modifiers matching the damage type,
// including wildcard ("all damage") modifiers
func (m *Manager) ResistanceModifier(damageType string) *ResistanceResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := &ResistanceResult{}
	for _, inst := range m.activeSortedLocked(false) {
		for _, mod := range m.catalog.ResistanceModifiersFor(inst.TemplateID) {
			if mod.DamageType == "" || mod.DamageType == damageType {
				result.Total += mod.Modifier
			}
		}
	}
	return result
}

// TurnOrderModifier sums the turn-order deltas of active conditions
func (m *Manager) TurnOrderModifier() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, inst := range m.activeSortedLocked(false) {
		if tmpl := m.template(inst.TemplateID); tmpl != nil && tmpl.AffectsTurnOrder {
			total += tmpl.TurnOrderDelta
		}
	}
	return total
}

// AggroPriority returns the highest aggro priority among active taunting
// conditions, 0 when none draws aggro. Strongest taunt wins when several
// are active at once.
func (m *Manager) AggroPriority() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	highest := 0
	for _, inst := range m.activeSortedLocked(false) {
		tmpl := m.template(inst.TemplateID)
		if tmpl == nil || !tmpl.DrawsAggro {
			continue
		}
		if tmpl.AggroPriority > highest {
			highest = tmpl.AggroPriority
		}
	}
	return highest
}
