package classify

import (
	"errors"

	"github.com/srijeethT/cytomind/internal/domain/model"
	"github.com/srijeethT/cytomind/internal/util"
)

const (
	defaultMalignantTier  = 20.0
	defaultSuspiciousTier = 5.0
	defaultTopN           = 5
)

// ErrNoUsableItems indicates aggregation received no successfully classified items.
var ErrNoUsableItems = errors.New("no usable per-item results to aggregate")

// AggregatorOptions groups dependencies for Aggregator.
type AggregatorOptions struct {
	Table *ClassTable // Required: display-name lookup
	// MalignantClasses is the aggregate-level malignant set. The batch tier
	// counts only primary-class membership in this set, never the per-item
	// probability-mass heuristic; the coarser criterion keeps the batch
	// verdict specific while item flags stay sensitive.
	MalignantClasses []string
	MalignantTier    float64 // Optional: MALIGNANT threshold in percent (default 20)
	SuspiciousTier   float64 // Optional: SUSPICIOUS threshold in percent (default 5)
	TopN             int     // Optional: top predictions kept (default 5)
}

// Aggregator combines an ordered sequence of per-item results into one
// patient-level verdict. It is a pure function of its input: identical input
// sequences always produce identical results, and all tie-breaks follow
// first-seen order.
type Aggregator struct {
	table          *ClassTable
	malignant      map[string]struct{}
	malignantTier  float64
	suspiciousTier float64
	topN           int
}

// NewAggregator constructs an Aggregator.
func NewAggregator(opts AggregatorOptions) (*Aggregator, error) {
	if opts.Table == nil {
		return nil, errors.New("class table is required")
	}

	malignantTier := opts.MalignantTier
	if malignantTier <= 0 {
		malignantTier = defaultMalignantTier
	}
	suspiciousTier := opts.SuspiciousTier
	if suspiciousTier <= 0 {
		suspiciousTier = defaultSuspiciousTier
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = defaultTopN
	}

	return &Aggregator{
		table:          opts.Table,
		malignant:      classSet(opts.MalignantClasses),
		malignantTier:  malignantTier,
		suspiciousTier: suspiciousTier,
		topN:           topN,
	}, nil
}

// Aggregate derives the batch verdict from items in submission order. Items
// whose inference failed are excluded; aggregation over only failed items is
// an error.
func (a *Aggregator) Aggregate(items []model.PerItemResult) (model.AggregateResult, error) {
	usable := make([]model.PerItemResult, 0, len(items))
	for i := range items {
		if !items[i].Failed() {
			usable = append(usable, items[i])
		}
	}
	if len(usable) == 0 {
		return model.AggregateResult{}, ErrNoUsableItems
	}

	// A single sample is reported as-is rather than pushed through the batch
	// math, which would distort a one-cell distribution.
	if len(usable) == 1 {
		return a.singleItem(usable[0]), nil
	}

	tally := newClassTally()
	malignantCount := 0
	confidenceSum := 0.0
	for i := range usable {
		tally.add(usable[i].PrimaryClass)
		if _, ok := a.malignant[usable[i].PrimaryClass]; ok {
			malignantCount++
		}
		confidenceSum += usable[i].Confidence
	}

	total := len(usable)
	malignancyPct := util.Round1(float64(malignantCount) / float64(total) * 100)
	primary := tally.mode()

	distribution := a.distribution(tally, total)
	topN := a.topN
	if topN > len(distribution) {
		topN = len(distribution)
	}
	top := make([]model.TopPrediction, 0, topN)
	for _, entry := range distribution[:topN] {
		top = append(top, model.TopPrediction{
			Class:       entry.Class,
			DisplayName: entry.DisplayName,
			Probability: entry.Percentage,
			Count:       entry.Count,
		})
	}

	return model.AggregateResult{
		Classification:     a.tier(malignancyPct),
		PrimaryClass:       primary,
		PrimaryDisplayName: a.table.DisplayName(primary),
		MalignancyPercent:  malignancyPct,
		MalignantCellCount: malignantCount,
		TotalCells:         total,
		Confidence:         util.Round1(confidenceSum / float64(total)),
		CellDistribution:   distribution,
		TopPredictions:     top,
	}, nil
}

// singleItem maps one item's own classification onto the aggregate shape.
func (a *Aggregator) singleItem(item model.PerItemResult) model.AggregateResult {
	tier := model.TierBenign
	malignantCount := 0
	if item.Malignant {
		tier = model.TierMalignant
		malignantCount = 1
	}

	entry := model.CellDistributionEntry{
		Class:       item.PrimaryClass,
		DisplayName: a.table.DisplayName(item.PrimaryClass),
		Count:       1,
		Percentage:  100,
	}

	return model.AggregateResult{
		Classification:     tier,
		PrimaryClass:       item.PrimaryClass,
		PrimaryDisplayName: a.table.DisplayName(item.PrimaryClass),
		MalignancyPercent:  util.Round1(item.MalignancyScore),
		MalignantCellCount: malignantCount,
		TotalCells:         1,
		Confidence:         util.Round1(item.Confidence),
		CellDistribution:   []model.CellDistributionEntry{entry},
		TopPredictions: []model.TopPrediction{{
			Class:       entry.Class,
			DisplayName: entry.DisplayName,
			Probability: entry.Percentage,
			Count:       entry.Count,
		}},
	}
}

func (a *Aggregator) tier(malignancyPct float64) model.Tier {
	switch {
	case malignancyPct >= a.malignantTier:
		return model.TierMalignant
	case malignancyPct >= a.suspiciousTier:
		return model.TierSuspicious
	default:
		return model.TierBenign
	}
}

// distribution builds the per-class breakdown sorted descending by count,
// first-seen order on ties. Insertion sort over the small class tally keeps
// the ordering stable without re-deriving sort keys.
func (a *Aggregator) distribution(tally *classTally, total int) []model.CellDistributionEntry {
	entries := make([]model.CellDistributionEntry, 0, len(tally.order))
	for _, class := range tally.order {
		count := tally.counts[class]
		entry := model.CellDistributionEntry{
			Class:       class,
			DisplayName: a.table.DisplayName(class),
			Count:       count,
			Percentage:  util.Round1(float64(count) / float64(total) * 100),
		}
		pos := len(entries)
		for pos > 0 && entries[pos-1].Count < entry.Count {
			pos--
		}
		entries = append(entries, model.CellDistributionEntry{})
		copy(entries[pos+1:], entries[pos:])
		entries[pos] = entry
	}
	return entries
}

// classTally counts primary-class occurrences preserving first-seen order so
// downstream tie-breaks stay deterministic for a given input sequence.
type classTally struct {
	order  []string
	counts map[string]int
}

func newClassTally() *classTally {
	return &classTally{counts: make(map[string]int)}
}

func (t *classTally) add(class string) {
	if _, ok := t.counts[class]; !ok {
		t.order = append(t.order, class)
	}
	t.counts[class]++
}

// mode returns the most frequent class; the first-seen class wins ties.
func (t *classTally) mode() string {
	best := ""
	bestCount := -1
	for _, class := range t.order {
		if t.counts[class] > bestCount {
			best = class
			bestCount = t.counts[class]
		}
	}
	return best
}
