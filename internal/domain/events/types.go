package events

// EventType identifies a condition lifecycle event
type EventType string

const (
	// OnConditionApplied fires when a new condition instance is created
	OnConditionApplied EventType = "condition.applied"

	// OnConditionStacked fires when an existing instance gains a stack
	OnConditionStacked EventType = "condition.stacked"

	// OnConditionRefreshed fires when a non-stacking apply resets severity/duration
	OnConditionRefreshed EventType = "condition.refreshed"

	// OnConditionRemoved fires when an instance is removed by an explicit call
	// or by an interaction outcome
	OnConditionRemoved EventType = "condition.removed"

	// OnConditionExpired fires when an instance's duration runs out
	OnConditionExpired EventType = "condition.expired"

	// OnConditionPrevented fires when an apply is blocked by an interaction
	OnConditionPrevented EventType = "condition.prevented"

	// OnConditionSuppressed fires when an instance is suppressed or unsuppressed
	OnConditionSuppressed EventType = "condition.suppressed"

	// OnStageAdvanced fires when a progressing instance moves to its next stage
	OnStageAdvanced EventType = "condition.stage_advanced"

	// OnDamageTick fires when a damage-over-time rule deals damage
	OnDamageTick EventType = "condition.damage_tick"
)

// Context keys used by condition lifecycle events
const (
	ContextTargetID        = "target_id"        // string: entity holding the condition
	ContextTemplateID      = "template_id"      // string: condition template
	ContextInstanceID      = "instance_id"      // string: condition instance
	ContextStacks          = "stacks"           // int: stack count after the change
	ContextSeverity        = "severity"         // int: instance severity
	ContextStage           = "stage"            // int: stage ordinal after the change
	ContextDamageType      = "damage_type"      // string: damage type of a tick
	ContextDamage          = "damage"           // int: damage amount of a tick
	ContextSource          = "source"           // string: what applied the condition
	ContextPreventedBy     = "prevented_by"     // string: template that blocked an apply
	ContextSuppressed      = "suppressed"       // bool: suppression state after the change
	ContextRoundsRemaining = "rounds_remaining" // int: duration left after a tick
)

// EventListener handles events dispatched by the bus
type EventListener interface {
	// HandleEvent processes the event; returning an error stops dispatch
	HandleEvent(event *GameEvent) error

	// Priority determines execution order, lower runs first
	Priority() int
}
