package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
	"github.com/aseptiq/fillsched/core/validate"
)

var planStart = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func lot(id, typ string, vials int, cfg rules.Config) model.Lot {
	return model.Lot{ID: id, Type: typ, Vials: vials, FillHours: rules.FillHours(vials, cfg)}
}

// threeLots is the worked reference case: B and A share a type, C forces a
// type switch that no longer fits the first window.
func threeLots(cfg rules.Config) []model.Lot {
	return []model.Lot{
		lot("A", "Solution", 1_000_000, cfg),  // ~50.2 h
		lot("B", "Solution", 500_000, cfg),    // ~25.1 h
		lot("C", "Suspension", 2_000_000, cfg), // ~100.4 h
	}
}

func fillOrder(s *model.Schedule) []string {
	var ids []string
	for _, a := range s.Activities {
		if a.Kind == model.KindFill {
			ids = append(ids, a.LotID)
		}
	}
	return ids
}

func TestSPTPackReferenceCase(t *testing.T) {
	cfg := rules.Default()
	strat, err := New("spt-pack")
	require.NoError(t, err)

	s, err := strat.Plan(context.Background(), threeLots(cfg), planStart, cfg)
	require.NoError(t, err)
	require.NoError(t, validate.Postflight(s, cfg))

	assert.Equal(t, []string{"B", "A", "C"}, fillOrder(s))

	k := s.KPIs()
	assert.Equal(t, 3, k.LotsScheduled)
	assert.Equal(t, 2, k.CleanBlocks, "C needs a fresh window")
	assert.Equal(t, 1, k.Changeovers)
	assert.InDelta(t, 4.0, k.ChangeoverHours, 1e-6, "B->A is a same-type changeover")
	assert.InDelta(t, 227.7028, k.MakespanHours, 1e-3)
}

func TestLPTPackReferenceCase(t *testing.T) {
	cfg := rules.Default()
	strat, err := New("lpt-pack")
	require.NoError(t, err)

	s, err := strat.Plan(context.Background(), threeLots(cfg), planStart, cfg)
	require.NoError(t, err)
	require.NoError(t, validate.Postflight(s, cfg))

	assert.Equal(t, []string{"C", "A", "B"}, fillOrder(s))
	k := s.KPIs()
	assert.Equal(t, 2, k.CleanBlocks)
	assert.Equal(t, 1, k.Changeovers)
}

func TestSPTOrderIsAscending(t *testing.T) {
	cfg := rules.Default()
	lots := []model.Lot{
		lot("L3", "X", 300_000, cfg),
		lot("L1", "Y", 100_000, cfg),
		lot("L2", "X", 200_000, cfg),
		lot("L4", "Y", 100_000, cfg), // ties with L1, broken by id
	}
	strat, _ := New("spt-pack")
	s, err := strat.Plan(context.Background(), lots, planStart, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L4", "L2", "L3"}, fillOrder(s))
}

func TestCFSClustersByTypeVolume(t *testing.T) {
	cfg := rules.Default()
	lots := []model.Lot{
		lot("X1", "Lyo", 100_000, cfg),
		lot("Y2", "Solution", 300_000, cfg),
		lot("X2", "Lyo", 150_000, cfg),
		lot("Y1", "Solution", 200_000, cfg),
	}
	strat, _ := New("cfs-pack")
	s, err := strat.Plan(context.Background(), lots, planStart, cfg)
	require.NoError(t, err)
	require.NoError(t, validate.Postflight(s, cfg))

	// Solution (500k vials) outranks Lyo (250k); ids ascend inside a cluster.
	assert.Equal(t, []string{"Y1", "Y2", "X1", "X2"}, fillOrder(s))
	assert.Equal(t, 1, s.KPIs().CleanBlocks)
}

func TestEveryHeuristicProducesValidSchedules(t *testing.T) {
	cfg := rules.Default()
	lots := []model.Lot{
		lot("A1", "Solution", 1_900_000, cfg),   // ~95.4 h, nearly a full window
		lot("A2", "Solution", 400_000, cfg),
		lot("B1", "Suspension", 1_200_000, cfg), // ~60.2 h
		lot("B2", "Suspension", 700_000, cfg),
		lot("C1", "Lyo", 900_000, cfg),
		lot("C2", "Lyo", 150_000, cfg),
		lot("A3", "Solution", 250_000, cfg),
	}

	for _, name := range Names() {
		if name == "milp-opt" {
			continue // exact backend is exercised separately on small instances
		}
		t.Run(name, func(t *testing.T) {
			strat, err := New(name)
			require.NoError(t, err)
			s, err := strat.Plan(context.Background(), lots, planStart, cfg)
			require.NoError(t, err)
			require.NoError(t, validate.Postflight(s, cfg))

			k := s.KPIs()
			assert.Equal(t, len(lots), k.LotsScheduled, "every lot is filled exactly once")
			assert.Equal(t, name, s.Strategy)
			assert.Equal(t, DefaultLine, s.Line)
		})
	}
}

func TestPlanningIsDeterministic(t *testing.T) {
	cfg := rules.Default()
	lots := []model.Lot{
		lot("A1", "Solution", 800_000, cfg),
		lot("B1", "Suspension", 800_000, cfg),
		lot("A2", "Solution", 400_000, cfg),
		lot("B2", "Suspension", 400_000, cfg),
	}
	for _, name := range []string{"spt-pack", "smart-pack", "hybrid-pack"} {
		t.Run(name, func(t *testing.T) {
			strat, _ := New(name)
			s1, err := strat.Plan(context.Background(), lots, planStart, cfg)
			require.NoError(t, err)
			s2, err := strat.Plan(context.Background(), lots, planStart, cfg)
			require.NoError(t, err)
			assert.Equal(t, s1, s2)
		})
	}
}

func TestPlanDoesNotMutateInput(t *testing.T) {
	cfg := rules.Default()
	lots := threeLots(cfg)
	want := append([]model.Lot(nil), lots...)
	strat, _ := New("spt-pack")
	_, err := strat.Plan(context.Background(), lots, planStart, cfg)
	require.NoError(t, err)
	assert.Equal(t, want, lots)
}

func TestOversizeLotFailsBeforePlacement(t *testing.T) {
	cfg := rules.Default()
	lots := []model.Lot{
		lot("OK", "Solution", 100_000, cfg),
		lot("BIG", "Solution", 3_000_000, cfg), // ~150.6 h > 120 h window
	}
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			strat, err := New(name)
			require.NoError(t, err)
			_, err = strat.Plan(context.Background(), lots, planStart, cfg)
			var oversize *OversizeLotError
			require.ErrorAs(t, err, &oversize)
			assert.Equal(t, "BIG", oversize.LotID)
		})
	}
}

func TestEmptyLotSet(t *testing.T) {
	cfg := rules.Default()
	strat, _ := New("smart-pack")
	s, err := strat.Plan(context.Background(), nil, planStart, cfg)
	require.NoError(t, err)
	assert.Empty(t, s.Activities, "nothing to do, not even a clean")
}

func TestScheduleOpensWithClean(t *testing.T) {
	cfg := rules.Default()
	strat, _ := New("spt-pack")
	s, err := strat.Plan(context.Background(), threeLots(cfg), planStart, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, s.Activities)
	assert.Equal(t, model.KindClean, s.Activities[0].Kind)
	assert.Equal(t, planStart, s.Activities[0].Start)
}

func TestProgressEvents(t *testing.T) {
	cfg := rules.Default()
	var events []ProgressEvent
	sink := ProgressFunc(func(ev ProgressEvent) { events = append(events, ev) })

	strat, err := New("spt-pack", WithProgress(sink))
	require.NoError(t, err)
	_, err = strat.Plan(context.Background(), threeLots(cfg), planStart, cfg)
	require.NoError(t, err)

	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, "spt-pack", ev.Strategy)
		assert.Equal(t, i+1, ev.Placed)
		assert.Equal(t, 3, ev.Total)
	}
	assert.Equal(t, "B", events[0].LotID)
}

func TestPlanGivenOrder(t *testing.T) {
	cfg := rules.Default()
	lots := threeLots(cfg) // A, C do not share a window with a C-sized tail
	s, err := PlanGivenOrder(context.Background(), lots, planStart, cfg)
	require.NoError(t, err)
	require.NoError(t, validate.Postflight(s, cfg))
	assert.Equal(t, []string{"A", "B", "C"}, fillOrder(s))
	assert.Equal(t, "given-order", s.Strategy)
}

func TestStrategyAliases(t *testing.T) {
	for alias, want := range map[string]string{
		"SPT":        "spt-pack",
		"lpt":        "lpt-pack",
		"smart_pack": "smart-pack",
		"Hybrid":     "hybrid-pack",
		"milp":       "milp-opt",
	} {
		strat, err := New(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, strat.Name())
	}
}

func TestUnknownStrategy(t *testing.T) {
	_, err := New("greedy-pack")
	assert.Error(t, err)
}
