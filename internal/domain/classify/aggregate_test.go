package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srijeethT/cytomind/internal/domain/model"
	"github.com/srijeethT/cytomind/internal/testutil"
)

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	table, err := NewClassTable(testutil.DefaultClasses, map[string]string{
		"BLA": "Blast",
		"NGS": "Segmented Neutrophil",
	})
	require.NoError(t, err)
	a, err := NewAggregator(AggregatorOptions{
		Table:            table,
		MalignantClasses: testutil.BatchMalignantClasses,
	})
	require.NoError(t, err)
	return a
}

func items(primaries ...string) []model.PerItemResult {
	out := make([]model.PerItemResult, 0, len(primaries))
	for i, p := range primaries {
		out = append(out, testutil.NewItemResult().WithIndex(i).WithPrimary(p).Build())
	}
	return out
}

func TestAggregate(t *testing.T) {
	a := newTestAggregator(t)

	t.Run("three blasts among ten cells", func(t *testing.T) {
		in := items("BLA", "NGS", "NGS", "BLA", "NGS", "NGS", "BLA", "NGS", "NGS", "NGS")

		got, err := a.Aggregate(in)
		require.NoError(t, err)

		assert.Equal(t, model.TierMalignant, got.Classification)
		assert.Equal(t, "NGS", got.PrimaryClass)
		assert.Equal(t, "Segmented Neutrophil", got.PrimaryDisplayName)
		assert.InDelta(t, 30.0, got.MalignancyPercent, 0.001)
		assert.Equal(t, 3, got.MalignantCellCount)
		assert.Equal(t, 10, got.TotalCells)

		require.Len(t, got.CellDistribution, 2)
		assert.Equal(t, "NGS", got.CellDistribution[0].Class)
		assert.Equal(t, 7, got.CellDistribution[0].Count)
		assert.InDelta(t, 70.0, got.CellDistribution[0].Percentage, 0.001)
		assert.Equal(t, "BLA", got.CellDistribution[1].Class)
		assert.InDelta(t, 30.0, got.CellDistribution[1].Percentage, 0.001)
	})

	t.Run("tier boundaries are inclusive", func(t *testing.T) {
		// 1 of 5 malignant = exactly 20%.
		got, err := a.Aggregate(items("BLA", "NGS", "NGS", "NGS", "NGS"))
		require.NoError(t, err)
		assert.Equal(t, model.TierMalignant, got.Classification)

		// 1 of 20 malignant = exactly 5%.
		in := items("BLA")
		for i := 0; i < 19; i++ {
			in = append(in, testutil.NewItemResult().WithIndex(i+1).WithPrimary("NGS").Build())
		}
		got, err = a.Aggregate(in)
		require.NoError(t, err)
		assert.Equal(t, model.TierSuspicious, got.Classification)

		// 1 of 25 malignant = 4%.
		for i := 0; i < 5; i++ {
			in = append(in, testutil.NewItemResult().WithIndex(20+i).WithPrimary("LYT").Build())
		}
		got, err = a.Aggregate(in)
		require.NoError(t, err)
		assert.Equal(t, model.TierBenign, got.Classification)
	})

	t.Run("mode ties break on first seen", func(t *testing.T) {
		got, err := a.Aggregate(items("LYT", "NGS", "NGS", "LYT"))
		require.NoError(t, err)
		assert.Equal(t, "LYT", got.PrimaryClass)
	})

	t.Run("failed items excluded", func(t *testing.T) {
		in := items("NGS", "NGS", "NGS")
		in = append(in, testutil.NewItemResult().WithIndex(3).WithError("backend unreachable").Build())

		got, err := a.Aggregate(in)
		require.NoError(t, err)
		assert.Equal(t, 3, got.TotalCells)
	})

	t.Run("only failed items is an error", func(t *testing.T) {
		in := []model.PerItemResult{
			testutil.NewItemResult().WithError("bad image").Build(),
		}
		_, err := a.Aggregate(in)
		assert.ErrorIs(t, err, ErrNoUsableItems)
	})

	t.Run("empty input is an error", func(t *testing.T) {
		_, err := a.Aggregate(nil)
		assert.ErrorIs(t, err, ErrNoUsableItems)
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		in := items("BLA", "NGS", "LYT", "NGS", "BLA", "MON")
		first, err := a.Aggregate(in)
		require.NoError(t, err)
		second, err := a.Aggregate(in)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("average confidence rounded", func(t *testing.T) {
		in := []model.PerItemResult{
			testutil.NewItemResult().WithIndex(0).WithPrimary("NGS").WithConfidence(91.11).Build(),
			testutil.NewItemResult().WithIndex(1).WithPrimary("NGS").WithConfidence(88.88).Build(),
		}
		got, err := a.Aggregate(in)
		require.NoError(t, err)
		assert.InDelta(t, 90.0, got.Confidence, 0.001)
	})
}

func TestAggregateSingleItem(t *testing.T) {
	a := newTestAggregator(t)

	t.Run("benign single cell reported as-is", func(t *testing.T) {
		item := testutil.NewItemResult().
			WithPrimary("NGS").
			WithConfidence(92.4).
			WithMalignancy(1.2, false).
			Build()

		got, err := a.Aggregate([]model.PerItemResult{item})
		require.NoError(t, err)

		assert.Equal(t, model.TierBenign, got.Classification)
		assert.Equal(t, "NGS", got.PrimaryClass)
		assert.InDelta(t, 1.2, got.MalignancyPercent, 0.001)
		assert.Equal(t, 0, got.MalignantCellCount)
		assert.Equal(t, 1, got.TotalCells)
		assert.InDelta(t, 92.4, got.Confidence, 0.001)

		require.Len(t, got.CellDistribution, 1)
		assert.Equal(t, 1, got.CellDistribution[0].Count)
		assert.InDelta(t, 100.0, got.CellDistribution[0].Percentage, 0.001)
	})

	t.Run("malignant single cell", func(t *testing.T) {
		item := testutil.NewItemResult().
			WithPrimary("BLA").
			WithConfidence(88).
			WithMalignancy(76.5, true).
			Build()

		got, err := a.Aggregate([]model.PerItemResult{item})
		require.NoError(t, err)

		assert.Equal(t, model.TierMalignant, got.Classification)
		assert.Equal(t, 1, got.MalignantCellCount)
		assert.InDelta(t, 76.5, got.MalignancyPercent, 0.001)
	})
}

func TestDistributionOrdering(t *testing.T) {
	a := newTestAggregator(t)

	// Counts: NGS 3, MON 2, LYT 2, BLA 1. MON seen before LYT; the tie keeps
	// that order.
	in := items("MON", "NGS", "LYT", "NGS", "LYT", "BLA", "MON", "NGS")

	got, err := a.Aggregate(in)
	require.NoError(t, err)

	classes := make([]string, 0, len(got.CellDistribution))
	total := 0.0
	for _, e := range got.CellDistribution {
		classes = append(classes, e.Class)
		total += e.Percentage
	}
	assert.Equal(t, []string{"NGS", "MON", "LYT", "BLA"}, classes)
	assert.InDelta(t, 100.0, total, 0.2)
}
