package conditions

import (
	"log"

	"github.com/thornmere/condition-engine/internal/domain/catalog"
	"github.com/thornmere/condition-engine/internal/domain/events"
)

// ProcessRoundStart evaluates start-of-round damage-over-time rules. Each
// matching rule yields its own tick; ticks sharing a damage type are not
// merged, so narration can attribute each one to its source.
func (m *Manager) ProcessRoundStart() *RoundStartResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	return &RoundStartResult{
		Damage: m.tickDamageLocked(catalog.TickStartOfRound),
	}
}

// ProcessRoundEnd advances time by one round: end-of-round damage ticks
// first (instances expiring this round still deal their final tick), then
// duration decrement and expiry, then stage progression for survivors.
func (m *Manager) ProcessRoundEnd() *RoundEndResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := &RoundEndResult{
		Damage: m.tickDamageLocked(catalog.TickEndOfRound),
	}

	// Duration. Suppressed instances keep counting down.
	for _, inst := range m.sortedLocked() {
		if inst.RoundsRemaining == nil {
			continue
		}
		*inst.RoundsRemaining = *inst.RoundsRemaining - 1
		if *inst.RoundsRemaining > 0 {
			continue
		}
		delete(m.instances, inst.TemplateID)
		result.Expired = append(result.Expired, inst)
		m.emitRemoved(inst, events.OnConditionExpired)
		log.Printf("[CONDITIONS] %s expired on %s", inst.TemplateID, m.targetID)
	}

	// Stage progression for instances that survived expiry.
	for _, inst := range m.sortedLocked() {
		if inst.StageOrdinal == 0 || inst.StageRoundsRemaining == nil {
			continue
		}
		*inst.StageRoundsRemaining = *inst.StageRoundsRemaining - 1
		if *inst.StageRoundsRemaining > 0 {
			continue
		}

		tmpl := m.template(inst.TemplateID)
		if tmpl == nil {
			continue
		}
		next := tmpl.StageAt(inst.StageOrdinal + 1)
		if next == nil {
			inst.StageRoundsRemaining = nil
			continue
		}

		inst.StageOrdinal = next.Ordinal
		if next.RoundsToNext != nil {
			v := *next.RoundsToNext
			inst.StageRoundsRemaining = &v
		} else {
			inst.StageRoundsRemaining = nil
		}
		result.Progressed = append(result.Progressed, inst)
		m.emit(events.NewGameEvent(events.OnStageAdvanced).
			WithContext(events.ContextTargetID, m.targetID).
			WithContext(events.ContextTemplateID, inst.TemplateID).
			WithContext(events.ContextInstanceID, inst.ID).
			WithContext(events.ContextStage, inst.StageOrdinal))
		log.Printf("[CONDITIONS] %s advanced to stage %d (%s) on %s", inst.TemplateID, next.Ordinal, next.Name, m.targetID)
	}

	return result
}

// tickDamageLocked computes damage-over-time ticks for the given timing.
// Suppressed instances deal no damage. Callers must hold the lock.
func (m *Manager) tickDamageLocked(timing catalog.TickTiming) []DamageTick {
	var ticks []DamageTick
	for _, inst := range m.activeSortedLocked(false) {
		for _, rule := range m.catalog.DamageOverTimeFor(inst.TemplateID) {
			if rule.Timing != timing {
				continue
			}
			amount := rule.BaseDamage
			if rule.ScalesWithSeverity {
				amount *= inst.Severity
			}
			if rule.ScalesWithStacks {
				amount *= inst.Stacks
			}
			ticks = append(ticks, DamageTick{
				TemplateID: inst.TemplateID,
				DamageType: rule.DamageType,
				Amount:     amount,
			})
			m.emit(events.NewGameEvent(events.OnDamageTick).
				WithContext(events.ContextTargetID, m.targetID).
				WithContext(events.ContextTemplateID, inst.TemplateID).
				WithContext(events.ContextDamageType, rule.DamageType).
				WithContext(events.ContextDamage, amount))
		}
	}
	return ticks
}
