// Package catalog holds the immutable condition definitions the engine runs
// against: templates, stages, interactions, damage rules and modifiers. The
// catalog is built once at startup from already-authored content and is
// read-only afterwards.
package catalog

import (
	"sort"

	engerr "github.com/thornmere/condition-engine/internal/errors"
)

// Data is the raw definition set a catalog is built from
type Data struct {
	Categories          []*Category           `yaml:"categories"`
	Templates           []*Template           `yaml:"templates"`
	Interactions        []*Interaction        `yaml:"interactions"`
	DamageInteractions  []*DamageInteraction  `yaml:"damage_interactions"`
	DamageOverTime      []*DamageOverTimeRule `yaml:"damage_over_time"`
	CapabilityEffects   []*CapabilityEffect   `yaml:"capability_effects"`
	CheckModifiers      []*CheckModifier      `yaml:"check_modifiers"`
	ResistanceModifiers []*ResistanceModifier `yaml:"resistance_modifiers"`
}

type capabilityKey struct {
	template   string
	stage      int
	capability string
}

// Catalog is the validated, indexed definition set
type Catalog struct {
	categories          map[string]*Category
	templates           map[string]*Template
	interactions        map[string][]*Interaction // keyed by owning template
	damageInteractions  map[string][]*DamageInteraction
	damageOverTime      map[string][]*DamageOverTimeRule
	capabilityEffects   map[capabilityKey]*CapabilityEffect
	checkModifiers      map[string][]*CheckModifier
	resistanceModifiers map[string][]*ResistanceModifier
}

// New validates the definition data and builds an indexed catalog
func New(data *Data) (*Catalog, error) {
	if data == nil {
		return nil, engerr.InvalidArgument("catalog data cannot be nil")
	}

	c := &Catalog{
		categories:          make(map[string]*Category),
		templates:           make(map[string]*Template),
		interactions:        make(map[string][]*Interaction),
		damageInteractions:  make(map[string][]*DamageInteraction),
		damageOverTime:      make(map[string][]*DamageOverTimeRule),
		capabilityEffects:   make(map[capabilityKey]*CapabilityEffect),
		checkModifiers:      make(map[string][]*CheckModifier),
		resistanceModifiers: make(map[string][]*ResistanceModifier),
	}

	for _, cat := range data.Categories {
		if cat.ID == "" {
			return nil, engerr.InvalidArgument("category ID is required")
		}
		if _, exists := c.categories[cat.ID]; exists {
			return nil, engerr.AlreadyExistsf("duplicate category '%s'", cat.ID)
		}
		c.categories[cat.ID] = cat
	}

	for _, tmpl := range data.Templates {
		if err := c.validateTemplate(tmpl); err != nil {
			return nil, err
		}
		c.templates[tmpl.ID] = tmpl
	}

	for _, in := range data.Interactions {
		if err := c.requireTemplate(in.Owning, "interaction owning"); err != nil {
			return nil, err
		}
		if err := c.requireTemplate(in.Other, "interaction other"); err != nil {
			return nil, err
		}
		if !in.Trigger.Valid() {
			return nil, engerr.InvalidArgumentf("interaction %s->%s has unknown trigger '%s'", in.Owning, in.Other, in.Trigger)
		}
		if !in.Outcome.Valid() {
			return nil, engerr.InvalidArgumentf("interaction %s->%s has unknown outcome '%s'", in.Owning, in.Other, in.Outcome)
		}
		c.interactions[in.Owning] = append(c.interactions[in.Owning], in)
	}

	for _, di := range data.DamageInteractions {
		if err := c.requireTemplate(di.Template, "damage interaction"); err != nil {
			return nil, err
		}
		if di.DamageType == "" {
			return nil, engerr.InvalidArgumentf("damage interaction for '%s' requires a damage type", di.Template)
		}
		c.damageInteractions[di.Template] = append(c.damageInteractions[di.Template], di)
	}

	for _, dot := range data.DamageOverTime {
		if err := c.requireTemplate(dot.Template, "damage-over-time rule"); err != nil {
			return nil, err
		}
		if dot.DamageType == "" {
			return nil, engerr.InvalidArgumentf("damage-over-time rule for '%s' requires a damage type", dot.Template)
		}
		if dot.BaseDamage < 0 {
			return nil, engerr.InvalidArgumentf("damage-over-time rule for '%s' has negative base damage", dot.Template)
		}
		if !dot.Timing.Valid() {
			return nil, engerr.InvalidArgumentf("damage-over-time rule for '%s' has unknown timing '%s'", dot.Template, dot.Timing)
		}
		c.damageOverTime[dot.Template] = append(c.damageOverTime[dot.Template], dot)
	}

	for _, ce := range data.CapabilityEffects {
		if err := c.requireTemplate(ce.Template, "capability effect"); err != nil {
			return nil, err
		}
		if ce.Capability == "" {
			return nil, engerr.InvalidArgumentf("capability effect for '%s' requires a capability", ce.Template)
		}
		if !ce.Type.Valid() {
			return nil, engerr.InvalidArgumentf("capability effect for '%s' has unknown type '%s'", ce.Template, ce.Type)
		}
		if ce.Stage != 0 && c.templates[ce.Template].StageAt(ce.Stage) == nil {
			return nil, engerr.InvalidArgumentf("capability effect for '%s' references unknown stage %d", ce.Template, ce.Stage)
		}
		key := capabilityKey{template: ce.Template, stage: ce.Stage, capability: ce.Capability}
		if _, exists := c.capabilityEffects[key]; exists {
			return nil, engerr.AlreadyExistsf("duplicate capability effect for '%s' stage %d capability '%s'", ce.Template, ce.Stage, ce.Capability)
		}
		c.capabilityEffects[key] = ce
	}

	for _, cm := range data.CheckModifiers {
		if err := c.requireTemplate(cm.Template, "check modifier"); err != nil {
			return nil, err
		}
		if cm.CheckType == "" {
			return nil, engerr.InvalidArgumentf("check modifier for '%s' requires a check type", cm.Template)
		}
		c.checkModifiers[cm.Template] = append(c.checkModifiers[cm.Template], cm)
	}

	for _, rm := range data.ResistanceModifiers {
		if err := c.requireTemplate(rm.Template, "resistance modifier"); err != nil {
			return nil, err
		}
		c.resistanceModifiers[rm.Template] = append(c.resistanceModifiers[rm.Template], rm)
	}

	return c, nil
}

func (c *Catalog) validateTemplate(tmpl *Template) error {
	if tmpl.ID == "" {
		return engerr.InvalidArgument("template ID is required")
	}
	if _, exists := c.templates[tmpl.ID]; exists {
		return engerr.AlreadyExistsf("duplicate template '%s'", tmpl.ID)
	}
	if tmpl.Category != "" {
		if _, exists := c.categories[tmpl.Category]; !exists {
			return engerr.NotFoundf("template '%s' references unknown category '%s'", tmpl.ID, tmpl.Category)
		}
	}
	if !tmpl.DurationType.Valid() {
		return engerr.InvalidArgumentf("template '%s' has unknown duration type '%s'", tmpl.ID, tmpl.DurationType)
	}
	if tmpl.DurationType == DurationRounds && tmpl.DurationRounds < 1 {
		return engerr.InvalidArgumentf("template '%s' requires a positive round duration", tmpl.ID)
	}

	if tmpl.Stackable {
		if tmpl.MaxStacks < 1 {
			return engerr.InvalidArgumentf("stackable template '%s' requires max_stacks >= 1", tmpl.ID)
		}
		if !tmpl.StackBehavior.Valid() {
			return engerr.InvalidArgumentf("stackable template '%s' has unknown stack behavior '%s'", tmpl.ID, tmpl.StackBehavior)
		}
		// Duration stacking needs a default duration to add per stack.
		if tmpl.StackBehavior == StackDuration && tmpl.DurationType != DurationRounds {
			return engerr.InvalidArgumentf("template '%s' stacks duration but has no round duration", tmpl.ID)
		}
	}

	for i, stage := range tmpl.Stages {
		if stage.Ordinal != i+1 {
			return engerr.InvalidArgumentf("template '%s' stages must be ordered 1..N, got %d at position %d", tmpl.ID, stage.Ordinal, i+1)
		}
		if stage.SeverityMultiplier <= 0 {
			return engerr.InvalidArgumentf("template '%s' stage %d requires a positive severity multiplier", tmpl.ID, stage.Ordinal)
		}
		terminal := i == len(tmpl.Stages)-1
		if terminal && stage.RoundsToNext != nil {
			return engerr.InvalidArgumentf("template '%s' terminal stage must not set rounds_to_next", tmpl.ID)
		}
		if !terminal && (stage.RoundsToNext == nil || *stage.RoundsToNext < 1) {
			return engerr.InvalidArgumentf("template '%s' stage %d requires positive rounds_to_next", tmpl.ID, stage.Ordinal)
		}
	}

	return nil
}

func (c *Catalog) requireTemplate(id, what string) error {
	if id == "" {
		return engerr.InvalidArgumentf("%s requires a template ID", what)
	}
	if _, exists := c.templates[id]; !exists {
		return engerr.NotFoundf("%s references unknown template '%s'", what, id)
	}
	return nil
}

// Template returns the template with the given ID
func (c *Catalog) Template(id string) (*Template, error) {
	tmpl, exists := c.templates[id]
	if !exists {
		return nil, engerr.NotFoundf("template '%s' not found", id).WithMeta("template_id", id)
	}
	return tmpl, nil
}

// Category returns the category with the given ID
func (c *Catalog) Category(id string) (*Category, error) {
	cat, exists := c.categories[id]
	if !exists {
		return nil, engerr.NotFoundf("category '%s' not found", id).WithMeta("category_id", id)
	}
	return cat, nil
}

// Templates returns all templates sorted by ID
func (c *Catalog) Templates() []*Template {
	templates := make([]*Template, 0, len(c.templates))
	for _, tmpl := range c.templates {
		templates = append(templates, tmpl)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ID < templates[j].ID
	})
	return templates
}

// InteractionsOwnedBy returns all interactions owned by the given template
func (c *Catalog) InteractionsOwnedBy(templateID string) []*Interaction {
	return c.interactions[templateID]
}

// DamageInteractionsFor returns all damage interactions of the given template
func (c *Catalog) DamageInteractionsFor(templateID string) []*DamageInteraction {
	return c.damageInteractions[templateID]
}

// DamageOverTimeFor returns all damage-over-time rules of the given template
func (c *Catalog) DamageOverTimeFor(templateID string) []*DamageOverTimeRule {
	return c.damageOverTime[templateID]
}

// CapabilityEffectFor returns the capability effect scoped to the given
// template, stage and capability, nil if none is defined. Stage 0 selects
// the template-scoped effect.
func (c *Catalog) CapabilityEffectFor(templateID string, stage int, capability string) *CapabilityEffect {
	return c.capabilityEffects[capabilityKey{template: templateID, stage: stage, capability: capability}]
}

// CheckModifiersFor returns all check modifiers of the given template
func (c *Catalog) CheckModifiersFor(templateID string) []*CheckModifier {
	return c.checkModifiers[templateID]
}

// ResistanceModifiersFor returns all resistance modifiers of the given template
func (c *Catalog) ResistanceModifiersFor(templateID string) []*ResistanceModifier {
	return c.resistanceModifiers[templateID]
}
