package catalog

// StackBehavior defines what an additional stack of a condition does
type StackBehavior string

const (
	// StackIntensity keeps duration untouched; stacks multiply scaling effects
	StackIntensity StackBehavior = "intensity"

	// StackDuration adds the template's default duration per stack
	StackDuration StackBehavior = "duration"
)

// Valid reports whether the value is a known stack behavior
func (b StackBehavior) Valid() bool {
	switch b {
	case StackIntensity, StackDuration:
		return true
	}
	return false
}

// DurationType defines how long a condition lasts by default
type DurationType string

const (
	// DurationRounds lasts a fixed number of combat rounds
	DurationRounds DurationType = "rounds"

	// DurationPermanent lasts until explicitly removed
	DurationPermanent DurationType = "permanent"
)

// Valid reports whether the value is a known duration type
func (d DurationType) Valid() bool {
	switch d {
	case DurationRounds, DurationPermanent:
		return true
	}
	return false
}

// InteractionTrigger defines when a condition interaction is evaluated
type InteractionTrigger string

const (
	// TriggerOnOtherApplied fires when the other condition is being applied
	// to a target already holding the owning condition
	TriggerOnOtherApplied InteractionTrigger = "on_other_applied"
)

// Valid reports whether the value is a known interaction trigger
func (t InteractionTrigger) Valid() bool {
	return t == TriggerOnOtherApplied
}

// InteractionOutcome defines what a triggered interaction does
type InteractionOutcome string

const (
	// OutcomeRemoveSelf removes the owning condition when the other is applied
	OutcomeRemoveSelf InteractionOutcome = "remove_self"

	// OutcomePreventOther blocks the other condition from being applied
	OutcomePreventOther InteractionOutcome = "prevent_other"
)

// Valid reports whether the value is a known interaction outcome
func (o InteractionOutcome) Valid() bool {
	switch o {
	case OutcomeRemoveSelf, OutcomePreventOther:
		return true
	}
	return false
}

// CapabilityEffectType defines how a condition affects a capability
type CapabilityEffectType string

const (
	// EffectBlocked fully prevents use of the capability
	EffectBlocked CapabilityEffectType = "blocked"

	// EffectReduced applies a percentage modifier to the capability
	EffectReduced CapabilityEffectType = "reduced"
)

// Valid reports whether the value is a known capability effect type
func (e CapabilityEffectType) Valid() bool {
	switch e {
	case EffectBlocked, EffectReduced:
		return true
	}
	return false
}

// TickTiming defines when a damage-over-time rule deals its damage
type TickTiming string

const (
	// TickStartOfRound deals damage when the round begins
	TickStartOfRound TickTiming = "start_of_round"

	// TickEndOfRound deals damage when the round ends
	TickEndOfRound TickTiming = "end_of_round"
)

// Valid reports whether the value is a known tick timing
func (t TickTiming) Valid() bool {
	switch t {
	case TickStartOfRound, TickEndOfRound:
		return true
	}
	return false
}

// Category groups condition templates (e.g. debuffs, blessings)
type Category struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Negative bool   `yaml:"negative"`
}

// Stage is one ordered progression step within a template.
// RoundsToNext is nil on the terminal stage.
type Stage struct {
	Ordinal            int     `yaml:"ordinal"`
	Name               string  `yaml:"name"`
	RoundsToNext       *int    `yaml:"rounds_to_next"`
	SeverityMultiplier float64 `yaml:"severity_multiplier"`
}

// Template is the immutable definition of a condition type. Templates are
// shared by reference between all instances; they are never mutated after
// the catalog is built.
type Template struct {
	ID               string        `yaml:"id"`
	Name             string        `yaml:"name"`
	Category         string        `yaml:"category"`
	Description      string        `yaml:"description"`
	Stackable        bool          `yaml:"stackable"`
	MaxStacks        int           `yaml:"max_stacks"`
	StackBehavior    StackBehavior `yaml:"stack_behavior"`
	DurationType     DurationType  `yaml:"duration_type"`
	DurationRounds   int           `yaml:"duration_rounds"`
	Stages           []*Stage      `yaml:"stages"`
	AffectsTurnOrder bool          `yaml:"affects_turn_order"`
	TurnOrderDelta   int           `yaml:"turn_order_delta"`
	DrawsAggro       bool          `yaml:"draws_aggro"`
	AggroPriority    int           `yaml:"aggro_priority"`
}

// HasProgression reports whether the template advances through stages
func (t *Template) HasProgression() bool {
	return len(t.Stages) > 0
}

// StageAt returns the stage with the given ordinal, nil if absent
func (t *Template) StageAt(ordinal int) *Stage {
	for _, s := range t.Stages {
		if s.Ordinal == ordinal {
			return s
		}
	}
	return nil
}

// DefaultRounds returns the default duration in rounds, nil for permanent
func (t *Template) DefaultRounds() *int {
	if t.DurationType != DurationRounds {
		return nil
	}
	rounds := t.DurationRounds
	return &rounds
}

// Interaction resolves what happens when Other is applied to a target that
// already carries Owning
type Interaction struct {
	Owning  string             `yaml:"owning"`
	Other   string             `yaml:"other"`
	Trigger InteractionTrigger `yaml:"trigger"`
	Outcome InteractionOutcome `yaml:"outcome"`
}

// DamageInteraction modifies incoming damage of a type while the condition
// is active, optionally consuming the condition
type DamageInteraction struct {
	Template         string `yaml:"template"`
	DamageType       string `yaml:"damage_type"`
	ModifierPercent  int    `yaml:"modifier_percent"`
	RemovesCondition bool   `yaml:"removes_condition"`
}

// DamageOverTimeRule deals periodic damage while the condition is active
type DamageOverTimeRule struct {
	Template           string     `yaml:"template"`
	DamageType         string     `yaml:"damage_type"`
	BaseDamage         int        `yaml:"base_damage"`
	Timing             TickTiming `yaml:"timing"`
	ScalesWithSeverity bool       `yaml:"scales_with_severity"`
	ScalesWithStacks   bool       `yaml:"scales_with_stacks"`
}

// CapabilityEffect blocks or reduces a capability while the condition is
// active. Stage 0 means the effect is template-scoped and applies at any
// stage; a non-zero Stage applies only while the instance is at that stage
// and is scaled by the stage's severity multiplier.
type CapabilityEffect struct {
	Template        string               `yaml:"template"`
	Stage           int                  `yaml:"stage"`
	Capability      string               `yaml:"capability"`
	Type            CapabilityEffectType `yaml:"type"`
	ModifierPercent int                  `yaml:"modifier_percent"`
}

// CheckModifier adjusts checks of a type while the condition is active
type CheckModifier struct {
	Template           string `yaml:"template"`
	CheckType          string `yaml:"check_type"`
	Modifier           int    `yaml:"modifier"`
	ScalesWithSeverity bool   `yaml:"scales_with_severity"`
}

// ResistanceModifier adjusts resistance to a damage type while the condition
// is active. An empty DamageType matches all damage.
type ResistanceModifier struct {
	Template   string `yaml:"template"`
	DamageType string `yaml:"damage_type"`
	Modifier   int    `yaml:"modifier"`
}
