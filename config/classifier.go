package config

import "time"

// ClassifierConfig contains inference, prediction, and aggregation configuration.
//
// The class table and malignant-class sets are configuration rather than code:
// the model server reports probabilities over an ordered class table, and the
// clinical interpretation of those classes is a deployment concern.
type ClassifierConfig struct {
	// ModelURL is the base URL of the external inference service.
	ModelURL string `env:"MODEL_URL" envDefault:"http://localhost:8501"`

	// ModelTimeout bounds a single inference call.
	ModelTimeout time.Duration `env:"MODEL_TIMEOUT" envDefault:"30s"`

	// RendererURL is the base URL of the external report rendering service.
	RendererURL string `env:"RENDERER_URL" envDefault:"http://localhost:8502"`

	// RendererTimeout bounds a single render call.
	RendererTimeout time.Duration `env:"RENDERER_TIMEOUT" envDefault:"60s"`

	// Classes is the ordered class table matching the model's output vector.
	Classes []string `env:"CLASSIFIER_CLASSES" envDefault:"ABE,ART,BAS,BLA,EBO,EOS,FGC,HAC,KSC,LYI,LYT,MMZ,MON,MYB,NGB,NGS,NIF,OTH,PEB,PLM,PMO"`

	// ItemMalignantClasses is the per-item malignant set used for the
	// probability-mass score and the single-image malignant flag.
	ItemMalignantClasses []string `env:"CLASSIFIER_ITEM_MALIGNANT_CLASSES" envDefault:"BLA,MYB,PLM,PMO,ABE,FGC,HAC,LYI"`

	// BatchMalignantClasses is the coarser aggregate-level set; batch tier is
	// derived from primary-class membership in this set only.
	BatchMalignantClasses []string `env:"CLASSIFIER_BATCH_MALIGNANT_CLASSES" envDefault:"BLA,MYB,PMO,FGC,ABE,EBO,PLM"`

	// TopK is the number of ranked predictions kept per item.
	TopK int `env:"CLASSIFIER_TOP_K" envDefault:"5"`

	// ItemMalignancyThreshold flags a single item malignant when the summed
	// malignant-class probability mass exceeds this percentage.
	ItemMalignancyThreshold float64 `env:"CLASSIFIER_ITEM_MALIGNANCY_THRESHOLD" envDefault:"30"`

	// MalignantTierThreshold classifies a batch MALIGNANT at or above this
	// malignancy percentage.
	MalignantTierThreshold float64 `env:"CLASSIFIER_MALIGNANT_TIER_THRESHOLD" envDefault:"20"`

	// SuspiciousTierThreshold classifies a batch SUSPICIOUS at or above this
	// malignancy percentage (below the malignant threshold).
	SuspiciousTierThreshold float64 `env:"CLASSIFIER_SUSPICIOUS_TIER_THRESHOLD" envDefault:"5"`
}

// Sanitize applies guardrails to classifier configuration values.
func (c *ClassifierConfig) Sanitize() {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.ItemMalignancyThreshold <= 0 {
		c.ItemMalignancyThreshold = 30
	}
	if c.MalignantTierThreshold <= 0 {
		c.MalignantTierThreshold = 20
	}
	if c.SuspiciousTierThreshold <= 0 {
		c.SuspiciousTierThreshold = 5
	}
	if c.SuspiciousTierThreshold > c.MalignantTierThreshold {
		c.SuspiciousTierThreshold = c.MalignantTierThreshold
	}
}

// ClassDisplayNames maps class codes to clinician-facing display names.
// Codes absent from this table fall back to the code itself.
var ClassDisplayNames = map[string]string{
	"ABE": "Abnormal Eosinophil",
	"ART": "Artefact",
	"BAS": "Basophil",
	"BLA": "Blast",
	"EBO": "Erythroblast",
	"EOS": "Eosinophil",
	"FGC": "Faggot Cell",
	"HAC": "Hairy Cell",
	"KSC": "Kidney Shaped Cell",
	"LYI": "Lymphocyte Immature",
	"LYT": "Lymphocyte",
	"MMZ": "Metamyelocyte",
	"MON": "Monocyte",
	"MYB": "Myeloblast",
	"NGB": "Band Neutrophil",
	"NGS": "Segmented Neutrophil",
	"NIF": "Neutrophil Immature Forms",
	"OTH": "Other",
	"PEB": "Proerythroblast",
	"PLM": "Plasma Cell",
	"PMO": "Promyelocyte",
}

// StorageConfig contains filesystem storage configuration.
type StorageConfig struct {
	// UploadDir is where submitted images are persisted before processing.
	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`

	// ReportsDir is where rendered report documents are persisted.
	ReportsDir string `env:"REPORTS_DIR" envDefault:"reports"`
}

// Sanitize applies guardrails to storage configuration values.
func (c *StorageConfig) Sanitize() {
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.ReportsDir == "" {
		c.ReportsDir = "reports"
	}
}
