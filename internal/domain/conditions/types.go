package conditions

import "time"

// Instance is the live, mutable state of one condition on one target.
// There is at most one instance per (target, template) pair; repeated
// applications stack or refresh the existing instance.
type Instance struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	TargetID   string `json:"target_id"`

	// Severity is the caller-supplied magnitude used by scaling effects
	Severity int `json:"severity"`

	// Stacks is the current stack count, 1..Template.MaxStacks
	Stacks int `json:"stacks"`

	// RoundsRemaining is nil for indefinite conditions
	RoundsRemaining *int `json:"rounds_remaining,omitempty"`

	// StageOrdinal is 0 when the template has no progression
	StageOrdinal int `json:"stage_ordinal,omitempty"`

	// StageRoundsRemaining is nil at the terminal stage
	StageRoundsRemaining *int `json:"stage_rounds_remaining,omitempty"`

	// Suppressed instances keep ticking but are excluded from aggregation,
	// interactions and damage-over-time
	Suppressed bool `json:"suppressed,omitempty"`

	SourceID   string    `json:"source_id,omitempty"`
	SourceText string    `json:"source_text,omitempty"`
	AppliedAt  time.Time `json:"applied_at"`
}

// Clone returns a deep copy of the instance
func (i *Instance) Clone() *Instance {
	cp := *i
	if i.RoundsRemaining != nil {
		v := *i.RoundsRemaining
		cp.RoundsRemaining = &v
	}
	if i.StageRoundsRemaining != nil {
		v := *i.StageRoundsRemaining
		cp.StageRoundsRemaining = &v
	}
	return &cp
}

// ApplyInput carries the arguments of an apply call
type ApplyInput struct {
	TemplateID string

	// Severity defaults to 1 when zero
	Severity int

	// DurationOverride replaces the template's default duration in rounds
	DurationOverride *int

	SourceID   string
	SourceText string
}

// ApplyOutcome reports what an apply call did
type ApplyOutcome struct {
	Success     bool
	Instance    *Instance
	StacksAdded int
	Message     string

	// Removed lists instances deleted by remove-self interactions
	Removed []*Instance

	// Prevented is set when an active condition blocked the application
	Prevented   bool
	PreventedBy string
}

// CapabilityStatus reports whether a capability is usable and how impaired it is
type CapabilityStatus struct {
	Blocked bool

	// Blocking lists the template IDs that block the capability
	Blocking []string

	// ModifierPercent is the summed reduction from non-blocking effects
	ModifierPercent int
}

// CheckBreakdownEntry attributes part of a check modifier to its source
type CheckBreakdownEntry struct {
	TemplateID string
	Value      int
}

// CheckResult is the aggregated modifier for one check type
type CheckResult struct {
	Total     int
	Breakdown []CheckBreakdownEntry
}

// ResistanceResult is the aggregated resistance modifier for one damage type
type ResistanceResult struct {
	Total int
}

// DamageResult reports how active conditions alter an incoming damage event
type DamageResult struct {
	ModifierPercent int
	Removed         []*Instance
}

// DamageTick is one damage-over-time application. Ticks are reported per
// source rule and never merged, even when two conditions share a damage type.
type DamageTick struct {
	TemplateID string
	DamageType string
	Amount     int
}

// RoundStartResult reports start-of-round damage ticks
type RoundStartResult struct {
	Damage []DamageTick
}

// RoundEndResult reports end-of-round ticks, expiries and stage advances
type RoundEndResult struct {
	Damage     []DamageTick
	Expired    []*Instance
	Progressed []*Instance
}
