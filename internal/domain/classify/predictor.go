package classify

import (
	"errors"
	"sort"

	"github.com/srijeethT/cytomind/internal/domain/model"
	"github.com/srijeethT/cytomind/internal/util"
)

const (
	defaultTopK                = 5
	defaultMalignancyThreshold = 30.0
)

// PredictorOptions groups dependencies for Predictor.
type PredictorOptions struct {
	Table *ClassTable // Required: ordered class table matching the model vector
	// MalignantClasses is the per-item malignant set. This is deliberately a
	// different, finer-grained set than the aggregate-level one: item-level
	// flagging favors sensitivity, batch-level tiering favors specificity.
	MalignantClasses []string
	TopK             int     // Optional: ranked predictions kept per item (default 5)
	Threshold        float64 // Optional: malignancy probability-mass threshold in percent (default 30)
}

// Predictor derives a structured per-item result from a raw probability vector.
type Predictor struct {
	table     *ClassTable
	malignant map[string]struct{}
	topK      int
	threshold float64
}

// NewPredictor constructs a Predictor.
func NewPredictor(opts PredictorOptions) (*Predictor, error) {
	if opts.Table == nil {
		return nil, errors.New("class table is required")
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = defaultMalignancyThreshold
	}

	return &Predictor{
		table:     opts.Table,
		malignant: classSet(opts.MalignantClasses),
		topK:      topK,
		threshold: threshold,
	}, nil
}

// ItemInput identifies the image a probability vector belongs to.
type ItemInput struct {
	ImageIndex    int
	ImageFilename string
}

// PredictOne turns a probability vector into a PerItemResult.
//
// The top-k list is sorted descending by probability with ties broken by class
// table order (the vector arrives in table order and the sort is stable). The
// item's malignancy score is the summed probability mass of the malignant set,
// and the item is flagged malignant when either the primary class is in the
// set or the score exceeds the threshold. The OR is deliberate: diffuse
// malignant probability mass flags an item even when the single most likely
// class is benign.
func (p *Predictor) PredictOne(probs model.ClassProbabilities, input ItemInput) (model.PerItemResult, error) {
	if len(probs) == 0 {
		return model.PerItemResult{}, errors.New("empty probability vector")
	}

	ranked := make(model.ClassProbabilities, len(probs))
	copy(ranked, probs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})

	k := p.topK
	if k > len(ranked) {
		k = len(ranked)
	}
	top := make([]model.RankedPrediction, 0, k)
	for _, cp := range ranked[:k] {
		top = append(top, model.RankedPrediction{
			Class:       cp.Class,
			DisplayName: p.table.DisplayName(cp.Class),
			Probability: util.Round2(cp.Probability),
		})
	}

	var score float64
	for _, cp := range probs {
		if _, ok := p.malignant[cp.Class]; ok {
			score += cp.Probability
		}
	}

	primary := ranked[0]
	_, primaryMalignant := p.malignant[primary.Class]

	return model.PerItemResult{
		ImageIndex:         input.ImageIndex,
		ImageFilename:      input.ImageFilename,
		PrimaryClass:       primary.Class,
		PrimaryDisplayName: p.table.DisplayName(primary.Class),
		Confidence:         util.Round2(primary.Probability),
		TopPredictions:     top,
		MalignancyScore:    util.Round2(score),
		Malignant:          primaryMalignant || score > p.threshold,
	}, nil
}
