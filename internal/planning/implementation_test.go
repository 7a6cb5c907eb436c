// internal/planning/implementation_test.go
package planning_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitstock/internal/inventory"
	"pitstock/internal/ledger"
	"pitstock/internal/planning"
	"pitstock/internal/storage/memory"
)

type fixture struct {
	store     *memory.Store
	inventory inventory.Service
	planning  planning.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store, nil, zerolog.Nop())
	return &fixture{
		store:     store,
		inventory: inventory.NewService(store, ledgerSvc, zerolog.Nop()),
		planning:  planning.NewService(store, store, zerolog.Nop()),
	}
}

func (f *fixture) createPart(t *testing.T, number string, quantity int, unitCost string) *inventory.Part {
	t.Helper()
	p := &inventory.Part{
		PartNumber:     number,
		Name:           "Neo Motor",
		Category:       inventory.CategoryElectronics,
		Unit:           "each",
		QuantityOnHand: quantity,
	}
	if unitCost != "" {
		p.UnitCost = decimal.NewNullDecimal(decimal.RequireFromString(unitCost))
	}
	created, err := f.inventory.CreatePart(context.Background(), p)
	require.NoError(t, err)
	return created
}

func sampleRequirement(partID uuid.UUID, templateID uuid.UUID, required int) *planning.Requirement {
	return &planning.Requirement{
		PartID:            partID,
		ProjectTemplateID: uuid.NullUUID{UUID: templateID, Valid: true},
		QuantityRequired:  required,
		Priority:          planning.PriorityMedium,
		BuildPhase:        planning.PhaseAny,
	}
}

func TestCreateRequirement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	part := f.createPart(t, "MO-0001", 4, "")
	templateID := uuid.New()

	created, err := f.planning.CreateRequirement(ctx, sampleRequirement(part.ID, templateID, 10))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.IsActive)

	listed, err := f.planning.RequirementsByProjectTemplate(ctx, templateID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestCreateRequirement_Invalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	part := f.createPart(t, "MO-0001", 4, "")

	r := sampleRequirement(part.ID, uuid.New(), 0)
	_, err := f.planning.CreateRequirement(ctx, r)
	assert.ErrorIs(t, err, planning.ErrInvalidRequirement)

	r = sampleRequirement(part.ID, uuid.New(), 10)
	r.ProjectTemplateID = uuid.NullUUID{}
	_, err = f.planning.CreateRequirement(ctx, r)
	assert.ErrorIs(t, err, planning.ErrInvalidRequirement, "needs a project or task template")
}

func TestValidateRequirement_Bounds(t *testing.T) {
	f := newFixture(t)
	partID := uuid.New()
	templateID := uuid.New()

	r := sampleRequirement(partID, templateID, 10)
	r.MinimumQuantity = 4
	r.MaximumQuantity = 12
	assert.True(t, f.planning.ValidateRequirement(r))

	r.MinimumQuantity = 14
	assert.False(t, f.planning.ValidateRequirement(r), "minimum above maximum")

	r.MinimumQuantity = 4
	r.QuantityRequired = 13
	assert.False(t, f.planning.ValidateRequirement(r), "required above maximum")

	r.QuantityRequired = 3
	assert.False(t, f.planning.ValidateRequirement(r), "required below minimum")

	r.QuantityRequired = 10
	r.Priority = "WHENEVER"
	assert.False(t, f.planning.ValidateRequirement(r))

	assert.False(t, f.planning.ValidateRequirement(nil))
}

func TestCanBeFulfilled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templateID := uuid.New()

	part := f.createPart(t, "MO-0001", 4, "")

	strict, err := f.planning.CreateRequirement(ctx, sampleRequirement(part.ID, templateID, 10))
	require.NoError(t, err)

	ok, err := f.planning.CanBeFulfilled(ctx, strict.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// A flexible requirement passes on its effective minimum.
	flexible := sampleRequirement(part.ID, templateID, 10)
	flexible.MinimumQuantity = 3
	created, err := f.planning.CreateRequirement(ctx, flexible)
	require.NoError(t, err)

	ok, err = f.planning.CanBeFulfilled(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Optional requirements never block.
	optional := sampleRequirement(part.ID, templateID, 100)
	optional.IsOptional = true
	created, err = f.planning.CreateRequirement(ctx, optional)
	require.NoError(t, err)

	ok, err = f.planning.CanBeFulfilled(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnfulfillableRequirements_CollectsEveryShortfall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templateID := uuid.New()

	lowPart := f.createPart(t, "MO-0001", 4, "")
	emptyPart := f.createPart(t, "MO-0002", 0, "")
	stockedPart := f.createPart(t, "MO-0003", 50, "")

	_, err := f.planning.CreateRequirement(ctx, sampleRequirement(lowPart.ID, templateID, 10))
	require.NoError(t, err)
	_, err = f.planning.CreateRequirement(ctx, sampleRequirement(emptyPart.ID, templateID, 2))
	require.NoError(t, err)
	_, err = f.planning.CreateRequirement(ctx, sampleRequirement(stockedPart.ID, templateID, 6))
	require.NoError(t, err)

	shortfalls, err := f.planning.UnfulfillableRequirements(ctx, templateID)
	require.NoError(t, err)
	require.Len(t, shortfalls, 2, "every failing requirement is reported, not just the first")

	byPart := map[uuid.UUID]planning.Shortfall{}
	for _, s := range shortfalls {
		byPart[s.Requirement.PartID] = s
	}
	assert.Equal(t, 6, byPart[lowPart.ID].Shortfall)
	assert.Equal(t, 4, byPart[lowPart.ID].QuantityOnHand)
	assert.Equal(t, 2, byPart[emptyPart.ID].Shortfall)

	canFulfill, err := f.planning.CanFulfillAllRequirements(ctx, templateID)
	require.NoError(t, err)
	assert.False(t, canFulfill)
}

func TestPartsNeeded_AggregatesByPart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templateID := uuid.New()

	shared := f.createPart(t, "MO-0001", 2, "")
	stocked := f.createPart(t, "MO-0002", 20, "")

	// Two requirements on the same part: 4 + 5 needed against 2 on hand.
	_, err := f.planning.CreateRequirement(ctx, sampleRequirement(shared.ID, templateID, 4))
	require.NoError(t, err)
	_, err = f.planning.CreateRequirement(ctx, sampleRequirement(shared.ID, templateID, 5))
	require.NoError(t, err)
	_, err = f.planning.CreateRequirement(ctx, sampleRequirement(stocked.ID, templateID, 10))
	require.NoError(t, err)

	optional := sampleRequirement(stocked.ID, templateID, 500)
	optional.IsOptional = true
	_, err = f.planning.CreateRequirement(ctx, optional)
	require.NoError(t, err)

	needed, err := f.planning.PartsNeeded(ctx, templateID)
	require.NoError(t, err)
	require.Len(t, needed, 1, "fully stocked and optional requirements stay off the list")
	assert.Equal(t, shared.ID, needed[0].Part.ID)
	assert.Equal(t, 5, needed[0].AdditionalUnits, "shortfalls for the same part are summed")
}

func TestCanFulfillAllRequirements_SkipsOptional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templateID := uuid.New()

	stocked := f.createPart(t, "MO-0001", 10, "")
	scarce := f.createPart(t, "MO-0002", 0, "")

	_, err := f.planning.CreateRequirement(ctx, sampleRequirement(stocked.ID, templateID, 5))
	require.NoError(t, err)

	optional := sampleRequirement(scarce.ID, templateID, 5)
	optional.IsOptional = true
	_, err = f.planning.CreateRequirement(ctx, optional)
	require.NoError(t, err)

	canFulfill, err := f.planning.CanFulfillAllRequirements(ctx, templateID)
	require.NoError(t, err)
	assert.True(t, canFulfill)
}

func TestRequirementsByBuildPhase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templateID := uuid.New()
	part := f.createPart(t, "MO-0001", 10, "")

	phases := []planning.BuildPhase{
		planning.PhaseDesign, planning.PhaseFabrication, planning.PhaseAny,
	}
	for _, phase := range phases {
		r := sampleRequirement(part.ID, templateID, 1)
		r.BuildPhase = phase
		_, err := f.planning.CreateRequirement(ctx, r)
		require.NoError(t, err)
	}

	fab, err := f.planning.RequirementsByBuildPhase(ctx, templateID, planning.PhaseFabrication)
	require.NoError(t, err)
	assert.Len(t, fab, 2, "phase match plus the ANY wildcard")

	testingPhase, err := f.planning.RequirementsByBuildPhase(ctx, templateID, planning.PhaseTesting)
	require.NoError(t, err)
	assert.Len(t, testingPhase, 1, "only the ANY wildcard")
}

func TestImmediateRequirements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templateID := uuid.New()
	part := f.createPart(t, "MO-0001", 10, "")

	design := sampleRequirement(part.ID, templateID, 1)
	design.BuildPhase = planning.PhaseDesign
	_, err := f.planning.CreateRequirement(ctx, design)
	require.NoError(t, err)

	fabrication := sampleRequirement(part.ID, templateID, 1)
	fabrication.BuildPhase = planning.PhaseFabrication
	_, err = f.planning.CreateRequirement(ctx, fabrication)
	require.NoError(t, err)

	wildcard := sampleRequirement(part.ID, templateID, 1)
	wildcard.BuildPhase = planning.PhaseAny
	_, err = f.planning.CreateRequirement(ctx, wildcard)
	require.NoError(t, err)

	// DESIGN plus its successor FABRICATION; the wildcard appears once.
	immediate, err := f.planning.ImmediateRequirements(ctx, templateID, planning.PhaseDesign)
	require.NoError(t, err)
	assert.Len(t, immediate, 3)

	// COMPETITION has no successor.
	immediate, err = f.planning.ImmediateRequirements(ctx, templateID, planning.PhaseCompetition)
	require.NoError(t, err)
	assert.Len(t, immediate, 1)
}

func TestCalculateTotalCost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templateID := uuid.New()

	priced := f.createPart(t, "MO-0001", 10, "25.00")
	unpriced := f.createPart(t, "MO-0002", 10, "")

	// Uses the part's unit cost: 4 x 25 = 100.
	_, err := f.planning.CreateRequirement(ctx, sampleRequirement(priced.ID, templateID, 4))
	require.NoError(t, err)

	// Own estimate wins over the part cost: 2 x 10 = 20.
	estimated := sampleRequirement(priced.ID, templateID, 2)
	estimated.EstimatedCost = decimal.NewNullDecimal(decimal.RequireFromString("10.00"))
	_, err = f.planning.CreateRequirement(ctx, estimated)
	require.NoError(t, err)

	// No price anywhere contributes nothing.
	_, err = f.planning.CreateRequirement(ctx, sampleRequirement(unpriced.ID, templateID, 3))
	require.NoError(t, err)

	total, err := f.planning.CalculateTotalCost(ctx, templateID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("120")), "got %s", total)
}

func TestPriorityFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templateID := uuid.New()
	part := f.createPart(t, "MO-0001", 10, "")

	priorities := []planning.Priority{
		planning.PriorityLow, planning.PriorityCritical, planning.PriorityHigh,
	}
	for _, priority := range priorities {
		r := sampleRequirement(part.ID, templateID, 1)
		r.Priority = priority
		r.IsCritical = priority == planning.PriorityCritical
		_, err := f.planning.CreateRequirement(ctx, r)
		require.NoError(t, err)
	}

	all, err := f.planning.RequirementsByProjectTemplate(ctx, templateID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, planning.PriorityCritical, all[0].Priority, "listings are priority ordered")

	high, err := f.planning.HighPriorityRequirements(ctx, templateID)
	require.NoError(t, err)
	assert.Len(t, high, 2)

	critical, err := f.planning.CriticalRequirements(ctx, templateID)
	require.NoError(t, err)
	assert.Len(t, critical, 1)

	low, err := f.planning.RequirementsByPriority(ctx, templateID, planning.PriorityLow)
	require.NoError(t, err)
	assert.Len(t, low, 1)
}

func TestUpdateAndDeleteRequirement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templateID := uuid.New()
	part := f.createPart(t, "MO-0001", 10, "")

	created, err := f.planning.CreateRequirement(ctx, sampleRequirement(part.ID, templateID, 4))
	require.NoError(t, err)

	update := sampleRequirement(part.ID, templateID, 8)
	updated, err := f.planning.UpdateRequirement(ctx, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 8, updated.QuantityRequired)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, f.planning.DeleteRequirement(ctx, created.ID))
	_, err = f.planning.GetRequirement(ctx, created.ID)
	assert.ErrorIs(t, err, planning.ErrRequirementNotFound)

	err = f.planning.DeleteRequirement(ctx, created.ID)
	assert.ErrorIs(t, err, planning.ErrRequirementNotFound)
}

func TestBuildPhaseChain(t *testing.T) {
	next, ok := planning.PhaseDesign.Next()
	require.True(t, ok)
	assert.Equal(t, planning.PhaseFabrication, next)

	next, ok = planning.PhaseIntegration.Next()
	require.True(t, ok)
	assert.Equal(t, planning.PhaseCompetition, next)

	_, ok = planning.PhaseCompetition.Next()
	assert.False(t, ok)

	_, ok = planning.PhaseAny.Next()
	assert.False(t, ok)

	assert.True(t, planning.PhaseAny.Matches(planning.PhaseTesting))
	assert.False(t, planning.PhaseDesign.Matches(planning.PhaseTesting))
}
