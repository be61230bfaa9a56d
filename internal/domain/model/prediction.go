package model

// ClassProbability pairs a class code with the probability (0-100) the model
// assigned to it.
type ClassProbability struct {
	Class       string  `json:"class"`
	Probability float64 `json:"probability"`
}

// ClassProbabilities is the model's output vector, ordered to match the
// configured class table. Ordering is load-bearing: top-k tie-breaks follow
// class-table insertion order.
type ClassProbabilities []ClassProbability

// RankedPrediction is one entry of an item's top-k list.
type RankedPrediction struct {
	Class       string  `json:"class"`
	DisplayName string  `json:"classFullName"`
	Probability float64 `json:"probability"`
}

// PerItemResult is the classification result for a single image. Immutable
// once produced; persisted only as embedded detail inside a report.
//
// Error records a per-item inference failure; an errored item carries no
// prediction fields and is excluded from aggregation.
type PerItemResult struct {
	ImageIndex         int                `json:"imageIndex"`
	ImageFilename      string             `json:"imageFilename"`
	PrimaryClass       string             `json:"primaryClass,omitempty"`
	PrimaryDisplayName string             `json:"primaryClassFullName,omitempty"`
	Confidence         float64            `json:"confidence,omitempty"`
	TopPredictions     []RankedPrediction `json:"topPredictions,omitempty"`
	MalignancyScore    float64            `json:"malignancyPercentage,omitempty"`
	Malignant          bool               `json:"malignant"`
	Error              string             `json:"error,omitempty"`
}

// Failed reports whether this item's inference failed.
func (r *PerItemResult) Failed() bool {
	return r.Error != ""
}
