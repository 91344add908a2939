package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/thornmere/condition-engine/internal/domain/catalog"
	"github.com/thornmere/condition-engine/internal/domain/events"
	engerr "github.com/thornmere/condition-engine/internal/errors"
	mockuuid "github.com/thornmere/condition-engine/internal/uuid/mocks"
)

func intPtr(v int) *int {
	return &v
}

// newTestCatalog builds the catalog shared by the conditions tests
func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New(&catalog.Data{
		Categories: []*catalog.Category{
			{ID: "debuff", Name: "Debuffs", Negative: true},
			{ID: "buff", Name: "Blessings"},
			{ID: "environmental", Name: "Environmental"},
		},
		Templates: []*catalog.Template{
			{ID: "blessing", Name: "Blessing", Category: "buff", DurationType: catalog.DurationPermanent},
			{ID: "bleed", Name: "Bleeding", Category: "debuff", DurationType: catalog.DurationRounds, DurationRounds: 1},
			{
				ID: "burning", Name: "Burning", Category: "debuff",
				Stackable: true, MaxStacks: 3, StackBehavior: catalog.StackIntensity,
				DurationType: catalog.DurationRounds, DurationRounds: 3,
			},
			{ID: "curse", Name: "Curse", Category: "debuff", DurationType: catalog.DurationPermanent},
			{ID: "frozen", Name: "Frozen", Category: "debuff", DurationType: catalog.DurationRounds, DurationRounds: 4},
			{
				ID: "poison", Name: "Poison", Category: "debuff",
				Stackable: true, MaxStacks: 3, StackBehavior: catalog.StackDuration,
				DurationType: catalog.DurationRounds, DurationRounds: 2,
			},
			{
				ID: "quickened", Name: "Quickened", Category: "buff",
				DurationType: catalog.DurationRounds, DurationRounds: 3,
				AffectsTurnOrder: true, TurnOrderDelta: 3,
			},
			{
				ID: "slowed", Name: "Slowed", Category: "debuff",
				DurationType: catalog.DurationRounds, DurationRounds: 2,
				AffectsTurnOrder: true, TurnOrderDelta: -2,
			},
			{ID: "smolder", Name: "Smoldering", Category: "debuff", DurationType: catalog.DurationRounds, DurationRounds: 2},
			{ID: "stunned", Name: "Stunned", Category: "debuff", DurationType: catalog.DurationRounds, DurationRounds: 1},
			{
				ID: "taunt_major", Name: "Rallying Roar", Category: "buff",
				DurationType: catalog.DurationRounds, DurationRounds: 3,
				DrawsAggro: true, AggroPriority: 5,
			},
			{
				ID: "taunt_minor", Name: "Jeer", Category: "buff",
				DurationType: catalog.DurationRounds, DurationRounds: 3,
				DrawsAggro: true, AggroPriority: 3,
			},
			{
				ID: "venom", Name: "Spider Venom", Category: "debuff",
				DurationType: catalog.DurationPermanent,
				Stages: []*catalog.Stage{
					{Ordinal: 1, Name: "Weakened", RoundsToNext: intPtr(2), SeverityMultiplier: 1.0},
					{Ordinal: 2, Name: "Feverish", RoundsToNext: intPtr(2), SeverityMultiplier: 1.5},
					{Ordinal: 3, Name: "Delirious", SeverityMultiplier: 2.0},
				},
			},
			{ID: "wet", Name: "Wet", Category: "environmental", DurationType: catalog.DurationRounds, DurationRounds: 5},
		},
		Interactions: []*catalog.Interaction{
			{Owning: "wet", Other: "burning", Trigger: catalog.TriggerOnOtherApplied, Outcome: catalog.OutcomePreventOther},
			{Owning: "frozen", Other: "burning", Trigger: catalog.TriggerOnOtherApplied, Outcome: catalog.OutcomePreventOther},
			{Owning: "burning", Other: "wet", Trigger: catalog.TriggerOnOtherApplied, Outcome: catalog.OutcomeRemoveSelf},
		},
		DamageInteractions: []*catalog.DamageInteraction{
			{Template: "frozen", DamageType: "fire", ModifierPercent: 50, RemovesCondition: true},
			{Template: "wet", DamageType: "lightning", ModifierPercent: 25},
		},
		DamageOverTime: []*catalog.DamageOverTimeRule{
			{Template: "burning", DamageType: "fire", BaseDamage: 5, Timing: catalog.TickStartOfRound, ScalesWithSeverity: true, ScalesWithStacks: true},
			{Template: "smolder", DamageType: "fire", BaseDamage: 3, Timing: catalog.TickStartOfRound},
			{Template: "bleed", DamageType: "physical", BaseDamage: 3, Timing: catalog.TickEndOfRound},
			{Template: "venom", DamageType: "poison", BaseDamage: 2, Timing: catalog.TickEndOfRound, ScalesWithSeverity: true},
		},
		CapabilityEffects: []*catalog.CapabilityEffect{
			{Template: "stunned", Capability: "act", Type: catalog.EffectBlocked},
			{Template: "frozen", Capability: "movement", Type: catalog.EffectBlocked},
			{Template: "slowed", Capability: "movement", Type: catalog.EffectReduced, ModifierPercent: -50},
			{Template: "venom", Capability: "movement", Type: catalog.EffectReduced, ModifierPercent: -10},
			{Template: "venom", Stage: 2, Capability: "movement", Type: catalog.EffectReduced, ModifierPercent: -50},
			{Template: "venom", Stage: 3, Capability: "movement", Type: catalog.EffectReduced, ModifierPercent: -50},
		},
		CheckModifiers: []*catalog.CheckModifier{
			{Template: "poison", CheckType: "fortitude", Modifier: -2, ScalesWithSeverity: true},
			{Template: "blessing", CheckType: "aim", Modifier: 10},
			{Template: "slowed", CheckType: "reflex", Modifier: -10},
		},
		ResistanceModifiers: []*catalog.ResistanceModifier{
			{Template: "wet", DamageType: "fire", Modifier: 50},
			{Template: "wet", DamageType: "lightning", Modifier: -50},
			{Template: "blessing", Modifier: 10},
		},
	})
	require.NoError(t, err)
	return cat
}

func newTestManager(t *testing.T, targetID string) *Manager {
	t.Helper()
	return NewManager(targetID, newTestCatalog(t), events.NewEventBus())
}

func TestManager_Apply(t *testing.T) {
	t.Run("new instance gets template defaults", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		outcome, err := manager.Apply(&ApplyInput{TemplateID: "burning", SourceText: "Fire Bolt"})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, 1, outcome.StacksAdded)
		assert.Equal(t, "applied", outcome.Message)

		inst := outcome.Instance
		require.NotNil(t, inst)
		assert.Equal(t, "burning", inst.TemplateID)
		assert.Equal(t, "goblin-1", inst.TargetID)
		assert.Equal(t, 1, inst.Severity) // defaulted
		assert.Equal(t, 1, inst.Stacks)
		require.NotNil(t, inst.RoundsRemaining)
		assert.Equal(t, 3, *inst.RoundsRemaining)
		assert.Equal(t, "Fire Bolt", inst.SourceText)
		assert.NotEmpty(t, inst.ID)
	})

	t.Run("progressing template starts at stage one", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		outcome, err := manager.Apply(&ApplyInput{TemplateID: "venom", Severity: 2})
		require.NoError(t, err)

		inst := outcome.Instance
		assert.Equal(t, 1, inst.StageOrdinal)
		require.NotNil(t, inst.StageRoundsRemaining)
		assert.Equal(t, 2, *inst.StageRoundsRemaining)
		assert.Nil(t, inst.RoundsRemaining) // permanent
	})

	t.Run("duration override replaces template default", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		outcome, err := manager.Apply(&ApplyInput{TemplateID: "burning", DurationOverride: intPtr(7)})
		require.NoError(t, err)
		require.NotNil(t, outcome.Instance.RoundsRemaining)
		assert.Equal(t, 7, *outcome.Instance.RoundsRemaining)
	})

	t.Run("non-stackable template refreshes", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "stunned", Severity: 1})
		require.NoError(t, err)

		outcome, err := manager.Apply(&ApplyInput{TemplateID: "stunned", Severity: 3})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, 0, outcome.StacksAdded)
		assert.Equal(t, "refreshed", outcome.Message)
		assert.Equal(t, 3, outcome.Instance.Severity)
		assert.Equal(t, 1, outcome.Instance.Stacks)
		require.NotNil(t, outcome.Instance.RoundsRemaining)
		assert.Equal(t, 1, *outcome.Instance.RoundsRemaining)

		assert.Len(t, manager.ActiveConditions(false), 1)
	})

	t.Run("stacking increments up to max", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		for i := 0; i < 4; i++ {
			_, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
			require.NoError(t, err)
		}

		inst := manager.Get("burning")
		require.NotNil(t, inst)
		assert.Equal(t, 3, inst.Stacks) // capped at max_stacks
		assert.Len(t, manager.ActiveConditions(false), 1)
	})

	t.Run("stack message reports count", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
		require.NoError(t, err)
		outcome, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.StacksAdded)
		assert.Equal(t, "stacked to 2", outcome.Message)
	})

	t.Run("duration stacking accumulates rounds", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "poison"})
		require.NoError(t, err)
		outcome, err := manager.Apply(&ApplyInput{TemplateID: "poison"})
		require.NoError(t, err)

		require.NotNil(t, outcome.Instance.RoundsRemaining)
		assert.Equal(t, 4, *outcome.Instance.RoundsRemaining) // 2 + 2
	})

	t.Run("intensity stacking leaves duration untouched", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
		require.NoError(t, err)
		outcome, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
		require.NoError(t, err)

		require.NotNil(t, outcome.Instance.RoundsRemaining)
		assert.Equal(t, 3, *outcome.Instance.RoundsRemaining)
	})

	t.Run("unknown template", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "petrified"})
		require.Error(t, err)
		assert.True(t, engerr.IsNotFound(err))
	})

	t.Run("negative severity", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "burning", Severity: -2})
		require.Error(t, err)
		assert.True(t, engerr.IsInvalidArgument(err))
		assert.Empty(t, manager.ActiveConditions(false))
	})

	t.Run("negative duration override", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "burning", DurationOverride: intPtr(-1)})
		require.Error(t, err)
		assert.True(t, engerr.IsInvalidArgument(err))
	})
}

func TestManager_Interactions(t *testing.T) {
	t.Run("prevent other blocks the apply", func(t *testing.T) {
		manager := newTestManager(t, "knight-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "wet"})
		require.NoError(t, err)

		outcome, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
		require.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.True(t, outcome.Prevented)
		assert.Equal(t, "wet", outcome.PreventedBy)
		assert.Nil(t, outcome.Instance)

		assert.False(t, manager.HasCondition("burning", true))
	})

	t.Run("multiple preventers report the lowest template id", func(t *testing.T) {
		manager := newTestManager(t, "knight-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "wet"})
		require.NoError(t, err)
		_, err = manager.Apply(&ApplyInput{TemplateID: "frozen"})
		require.NoError(t, err)

		outcome, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
		require.NoError(t, err)
		assert.True(t, outcome.Prevented)
		assert.Equal(t, "frozen", outcome.PreventedBy)
	})

	t.Run("suppressed conditions do not prevent", func(t *testing.T) {
		manager := newTestManager(t, "knight-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "wet"})
		require.NoError(t, err)
		require.True(t, manager.Suppress("wet"))

		outcome, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.False(t, outcome.Prevented)
	})

	t.Run("remove self deletes the owning condition", func(t *testing.T) {
		manager := newTestManager(t, "knight-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
		require.NoError(t, err)

		outcome, err := manager.Apply(&ApplyInput{TemplateID: "wet"})
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		require.Len(t, outcome.Removed, 1)
		assert.Equal(t, "burning", outcome.Removed[0].TemplateID)

		assert.False(t, manager.HasCondition("burning", true))
		assert.True(t, manager.HasCondition("wet", false))
	})
}

func TestManager_Remove(t *testing.T) {
	t.Run("missing instance returns false", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")
		assert.False(t, manager.Remove("burning", true))
	})

	t.Run("single stack removal keeps the instance", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		for i := 0; i < 3; i++ {
			_, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
			require.NoError(t, err)
		}

		assert.True(t, manager.Remove("burning", false))
		inst := manager.Get("burning")
		require.NotNil(t, inst)
		assert.Equal(t, 2, inst.Stacks)

		assert.True(t, manager.Remove("burning", true))
		assert.Nil(t, manager.Get("burning"))
	})

	t.Run("last stack removal deletes the instance", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
		require.NoError(t, err)

		assert.True(t, manager.Remove("burning", false))
		assert.Nil(t, manager.Get("burning"))
	})
}

func TestManager_RemoveByCategory(t *testing.T) {
	manager := newTestManager(t, "goblin-1")

	for _, id := range []string{"burning", "wet", "curse"} {
		_, err := manager.Apply(&ApplyInput{TemplateID: id})
		require.NoError(t, err)
	}

	removed, err := manager.RemoveByCategory("debuff")
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, "burning", removed[0].TemplateID)
	assert.Equal(t, "curse", removed[1].TemplateID)

	assert.True(t, manager.HasCondition("wet", false))
	assert.False(t, manager.HasCondition("burning", true))

	_, err = manager.RemoveByCategory("nonsense")
	require.Error(t, err)
	assert.True(t, engerr.IsNotFound(err))
}

func TestManager_ClearAll(t *testing.T) {
	t.Run("clears everything by default", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")
		for _, id := range []string{"burning", "wet", "blessing"} {
			_, err := manager.Apply(&ApplyInput{TemplateID: id})
			require.NoError(t, err)
		}

		count, err := manager.ClearAll(false, "")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.Empty(t, manager.ActiveConditions(true))
	})

	t.Run("only negative keeps buffs and environmental", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")
		for _, id := range []string{"burning", "wet", "blessing"} {
			_, err := manager.Apply(&ApplyInput{TemplateID: id})
			require.NoError(t, err)
		}

		count, err := manager.ClearAll(true, "")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.True(t, manager.HasCondition("wet", false))
		assert.True(t, manager.HasCondition("blessing", false))
	})

	t.Run("category filter", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")
		for _, id := range []string{"burning", "wet"} {
			_, err := manager.Apply(&ApplyInput{TemplateID: id})
			require.NoError(t, err)
		}

		count, err := manager.ClearAll(false, "environmental")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.True(t, manager.HasCondition("burning", false))
		assert.False(t, manager.HasCondition("wet", true))
	})

	t.Run("unknown category", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")
		_, err := manager.ClearAll(false, "nonsense")
		require.Error(t, err)
		assert.True(t, engerr.IsNotFound(err))
	})
}

func TestManager_Suppression(t *testing.T) {
	manager := newTestManager(t, "goblin-1")

	_, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
	require.NoError(t, err)

	assert.False(t, manager.Suppress("stunned")) // absent
	assert.True(t, manager.Suppress("burning"))

	assert.Empty(t, manager.ActiveConditions(false))
	assert.Len(t, manager.ActiveConditions(true), 1)
	assert.False(t, manager.HasCondition("burning", false))
	assert.True(t, manager.HasCondition("burning", true))

	assert.True(t, manager.Unsuppress("burning"))
	assert.Len(t, manager.ActiveConditions(false), 1)
}

func TestManager_HydrateSnapshot(t *testing.T) {
	manager := newTestManager(t, "goblin-1")

	_, err := manager.Apply(&ApplyInput{TemplateID: "burning", Severity: 2})
	require.NoError(t, err)
	_, err = manager.Apply(&ApplyInput{TemplateID: "venom"})
	require.NoError(t, err)

	snapshot := manager.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "burning", snapshot[0].TemplateID)
	assert.Equal(t, "venom", snapshot[1].TemplateID)

	restored := newTestManager(t, "goblin-1")
	require.NoError(t, restored.Hydrate(snapshot))
	assert.True(t, restored.HasCondition("burning", false))
	inst := restored.Get("venom")
	require.NotNil(t, inst)
	assert.Equal(t, 1, inst.StageOrdinal)

	t.Run("rejects unknown template", func(t *testing.T) {
		bad := []*Instance{{ID: "x", TemplateID: "petrified", TargetID: "goblin-1", Severity: 1, Stacks: 1}}
		err := newTestManager(t, "goblin-1").Hydrate(bad)
		require.Error(t, err)
		assert.True(t, engerr.IsNotFound(err))
	})

	t.Run("rejects duplicate templates", func(t *testing.T) {
		dup := []*Instance{
			{ID: "a", TemplateID: "burning", TargetID: "goblin-1", Severity: 1, Stacks: 1},
			{ID: "b", TemplateID: "burning", TargetID: "goblin-1", Severity: 1, Stacks: 1},
		}
		err := newTestManager(t, "goblin-1").Hydrate(dup)
		require.Error(t, err)
		assert.True(t, engerr.IsInvalidArgument(err))
	})
}

func TestManager_InstanceIDsComeFromGenerator(t *testing.T) {
	ctrl := gomock.NewController(t)
	manager := newTestManager(t, "goblin-1")

	gen := mockuuid.NewMockGenerator(ctrl)
	gen.EXPECT().New().Return("fixed-id")
	manager.uuidGenerator = gen

	outcome, err := manager.Apply(&ApplyInput{TemplateID: "burning"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", outcome.Instance.ID)
}

func TestManager_ProcessDamage(t *testing.T) {
	t.Run("matching interaction modifies and consumes", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "frozen"})
		require.NoError(t, err)

		result := manager.ProcessDamage("fire")
		assert.Equal(t, 50, result.ModifierPercent)
		require.Len(t, result.Removed, 1)
		assert.Equal(t, "frozen", result.Removed[0].TemplateID)
		assert.False(t, manager.HasCondition("frozen", true))
	})

	t.Run("non-consuming interaction keeps the condition", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "wet"})
		require.NoError(t, err)

		result := manager.ProcessDamage("lightning")
		assert.Equal(t, 25, result.ModifierPercent)
		assert.Empty(t, result.Removed)
		assert.True(t, manager.HasCondition("wet", false))
	})

	t.Run("unrelated damage type is a no-op", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "frozen"})
		require.NoError(t, err)

		result := manager.ProcessDamage("poison")
		assert.Equal(t, 0, result.ModifierPercent)
		assert.Empty(t, result.Removed)
		assert.True(t, manager.HasCondition("frozen", false))
	})

	t.Run("suppressed conditions do not react", func(t *testing.T) {
		manager := newTestManager(t, "goblin-1")

		_, err := manager.Apply(&ApplyInput{TemplateID: "frozen"})
		require.NoError(t, err)
		require.True(t, manager.Suppress("frozen"))

		result := manager.ProcessDamage("fire")
		assert.Equal(t, 0, result.ModifierPercent)
		assert.True(t, manager.HasCondition("frozen", true))
	})
}
