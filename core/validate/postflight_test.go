package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/rules"
)

// builder appends back-to-back activities, keeping the running clock.
type builder struct {
	now  time.Time
	acts []model.Activity
}

func newBuilder() *builder {
	return &builder{now: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
}

func (b *builder) add(kind model.ActivityKind, hours float64, lotID, lotType string) *builder {
	end := b.now.Add(time.Duration(hours * float64(time.Hour)))
	b.acts = append(b.acts, model.Activity{
		Kind: kind, Start: b.now, End: end, LotID: lotID, LotType: lotType, Line: "line-1",
	})
	b.now = end
	return b
}

func (b *builder) clean(hours float64) *builder { return b.add(model.KindClean, hours, "", "") }

func (b *builder) chg(hours float64, label string) *builder {
	return b.add(model.KindChangeover, hours, "", label)
}

func (b *builder) fill(hours float64, id, typ string) *builder {
	return b.add(model.KindFill, hours, id, typ)
}

func (b *builder) schedule() *model.Schedule {
	return &model.Schedule{Line: "line-1", Strategy: "test", Activities: b.acts}
}

func TestPostflightAcceptsValidSchedule(t *testing.T) {
	cfg := rules.Default()
	s := newBuilder().
		clean(24).
		fill(25.1, "B", "Solution").
		chg(4, "Solution->Solution").
		fill(50.2, "A", "Solution").
		clean(24).
		fill(100.4, "C", "Suspension").
		schedule()
	assert.NoError(t, Postflight(s, cfg))
}

func TestPostflightEmptySchedule(t *testing.T) {
	assert.NoError(t, Postflight(&model.Schedule{}, rules.Default()))
}

func TestPostflightRequiresOpeningClean(t *testing.T) {
	cfg := rules.Default()
	s := newBuilder().fill(10, "A", "Solution").schedule()
	var inv *ScheduleInvariantError
	require.ErrorAs(t, Postflight(s, cfg), &inv)
	assert.Equal(t, 0, inv.Index)
}

func TestPostflightWindowOverrun(t *testing.T) {
	cfg := rules.Default()
	// 119 + 4 + 10 hours of window work exceeds the 120 h budget.
	s := newBuilder().
		clean(24).
		fill(119, "A", "Solution").
		chg(4, "Solution->Solution").
		fill(10, "B", "Solution").
		schedule()
	var overrun *WindowOverrunError
	require.ErrorAs(t, Postflight(s, cfg), &overrun)
	assert.Greater(t, overrun.UsedHours, cfg.WindowHours)
}

func TestPostflightWindowExcludesCleanTime(t *testing.T) {
	cfg := rules.Default()
	// Two full-window blocks: clean time between them never counts against
	// either window.
	s := newBuilder().
		clean(24).
		fill(120, "A", "Solution").
		clean(24).
		fill(120, "B", "Solution").
		schedule()
	assert.NoError(t, Postflight(s, cfg))
}

func TestPostflightLotSplit(t *testing.T) {
	cfg := rules.Default()
	s := newBuilder().
		clean(24).
		fill(10, "A", "Solution").
		chg(4, "Solution->Solution").
		fill(10, "A", "Solution").
		schedule()
	var split *LotSplitError
	require.ErrorAs(t, Postflight(s, cfg), &split)
	assert.Equal(t, "A", split.LotID)
}

func TestPostflightOverlap(t *testing.T) {
	cfg := rules.Default()
	s := newBuilder().clean(24).fill(10, "A", "Solution").schedule()
	s.Activities[1].Start = s.Activities[1].Start.Add(-time.Hour)
	var inv *ScheduleInvariantError
	assert.ErrorAs(t, Postflight(s, cfg), &inv)
}

func TestPostflightChangeoverBookkeeping(t *testing.T) {
	cfg := rules.Default()

	t.Run("missing changeover", func(t *testing.T) {
		s := newBuilder().
			clean(24).
			fill(10, "A", "Solution").
			fill(10, "B", "Solution").
			schedule()
		var inv *ScheduleInvariantError
		assert.ErrorAs(t, Postflight(s, cfg), &inv)
	})

	t.Run("wrong changeover duration", func(t *testing.T) {
		s := newBuilder().
			clean(24).
			fill(10, "A", "Solution").
			chg(4, "Solution->Suspension"). // rule table says 8 h for a type switch
			fill(10, "B", "Suspension").
			schedule()
		var inv *ScheduleInvariantError
		assert.ErrorAs(t, Postflight(s, cfg), &inv)
	})

	t.Run("changeover directly after clean", func(t *testing.T) {
		s := newBuilder().
			clean(24).
			chg(4, "->Solution").
			fill(10, "A", "Solution").
			schedule()
		var inv *ScheduleInvariantError
		assert.ErrorAs(t, Postflight(s, cfg), &inv)
	})

	t.Run("trailing changeover", func(t *testing.T) {
		s := newBuilder().
			clean(24).
			fill(10, "A", "Solution").
			chg(4, "Solution->Solution").
			schedule()
		var inv *ScheduleInvariantError
		assert.ErrorAs(t, Postflight(s, cfg), &inv)
	})
}

func TestPostflightWrongCleanDuration(t *testing.T) {
	cfg := rules.Default()
	s := newBuilder().clean(12).fill(10, "A", "Solution").schedule()
	var inv *ScheduleInvariantError
	assert.ErrorAs(t, Postflight(s, cfg), &inv)
}
