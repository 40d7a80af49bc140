package file

import "github.com/openclinic/ragindex/internal/core/domain"

// defaultSynonyms is the built-in clinical synonym table. Groups are
// closed bidirectionally before use, so every member matches every
// other member of its group.
var defaultSynonyms = map[string][]string{
	"hypertension":          {"high blood pressure", "htn", "elevated blood pressure"},
	"myocardial infarction": {"heart attack", "mi", "stemi", "nstemi"},
	"heart failure":         {"chf", "congestive heart failure", "cardiac failure"},
	"atrial fibrillation":   {"afib", "af", "irregular heartbeat"},
	"diabetes":              {"diabetes mellitus", "dm", "hyperglycemia"},
	"stroke":                {"cva", "cerebrovascular accident", "brain attack"},
	"copd":                  {"chronic obstructive pulmonary disease", "emphysema", "chronic bronchitis"},
	"pneumonia":             {"lung infection", "cap", "community acquired pneumonia"},
	"kidney disease":        {"renal disease", "ckd", "nephropathy"},
	"treatment":             {"therapy", "management", "intervention"},
	"diagnosis":             {"workup", "evaluation", "assessment"},
	"symptoms":              {"presentation", "clinical features", "signs"},
	"medication":            {"drug", "pharmacotherapy", "agent"},
}

// defaultSectionHints biases section-specific retrieval toward the right
// kind of language even when the topic string is disease-only.
var defaultSectionHints = map[string]string{
	"overview":        "definition epidemiology background essentials",
	"pathophysiology": "mechanism cause etiology pathogenesis",
	"presentation":    "symptoms signs clinical features history examination",
	"diagnosis":       "workup testing criteria labs imaging differential",
	"management":      "treatment algorithm first-line therapy dosing guidelines",
	"prognosis":       "outcomes complications follow-up mortality",
	"prevention":      "screening risk reduction prophylaxis",
}

// defaultGroupTitles are the rendered context headings per source group.
var defaultGroupTitles = map[domain.SourceGroup]string{
	domain.GroupNote:  "Clinical Notes",
	domain.GroupSlide: "Lecture Slides",
}

// defaultGroupOrder fixes group presentation order in assembled context.
var defaultGroupOrder = []domain.SourceGroup{domain.GroupNote, domain.GroupSlide}
