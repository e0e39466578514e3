// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance decides whether a record belongs in the corpus and
// assigns topical category tags. Both decisions are case-folded substring
// matches against fixed keyword tables: deterministic and explainable, with
// recall tied directly to the tables' completeness. No learned classifier.
package relevance

import (
	"sort"
	"strings"

	"github.com/foodai/living-review/pkg/types"
)

// defaultGenerativeTerms is the generative/AI-technique keyword family.
var defaultGenerativeTerms = []string{
	"generative",
	"synthetic data",
	"synthetic images",
	// No bare "gan": it substring-matches "organic" and "Ugandan".
	"generative adversarial",
	"diffusion model",
	"large language model",
	"language model",
	"foundation model",
	"chatbot",
	"text-to-image",
}

// defaultAgriFoodTerms is the agriculture/food keyword family.
var defaultAgriFoodTerms = []string{
	"agriculture",
	"agricultural",
	"agri-food",
	"agrifood",
	"farming",
	"farm",
	"crop",
	"plant",
	"livestock",
	"food safety",
	"food quality",
	"soil",
	"greenhouse",
	"horticulture",
}

// defaultCategoryKeywords maps category names to the phrases that assign
// them. Matching is independent per category: a record may carry several.
var defaultCategoryKeywords = map[string][]string{
	"Synthetic Data":            {"synthetic data", "synthetic images", "data augmentation", "simulation"},
	"Disease Detection":         {"disease detection", "plant disease", "crop disease", "leaf disease", "plant pathology", "pest detection"},
	"Crop Prediction":           {"crop yield", "yield prediction", "weather forecasting", "climate simulation"},
	"Robotics & Automation":     {"robot", "autonomous", "path planning", "grasping", "agricultural robot"},
	"Livestock & Animal Health": {"livestock", "animal health", "animal nutrition", "feed formulation"},
	"Food Safety & Quality":     {"food safety", "food quality", "inspection", "traceability", "supply chain"},
	"Sustainability":            {"sustainable agriculture", "carbon footprint", "climate", "environmental"},
	"Smart Agriculture":         {"precision agriculture", "iot sensors", "sensor fusion", "vertical farming", "hydroponics"},
	"AI Assistants":             {"large language model", "chatbot", "virtual assistant", "farm management", "advisory"},
	"Plant Breeding":            {"plant breeding", "crop genetics", "genetic algorithm", "sequence generation"},
}

// CategoryOther tags records matching no keyword family.
const CategoryOther = "Other"

// Engine evaluates relevance and categories against its keyword tables.
type Engine struct {
	generativeTerms []string
	agriFoodTerms   []string
	categories      map[string][]string
}

// NewEngine builds an Engine from cfg. Empty config fields fall back to
// the built-in tables. Keyword phrases are lower-cased once here so that
// matching stays a plain substring test.
func NewEngine(cfg types.KeywordConfig) *Engine {
	e := &Engine{
		generativeTerms: lowerAll(defaultGenerativeTerms),
		agriFoodTerms:   lowerAll(defaultAgriFoodTerms),
		categories:      make(map[string][]string, len(defaultCategoryKeywords)),
	}
	for name, keywords := range defaultCategoryKeywords {
		e.categories[name] = lowerAll(keywords)
	}

	if len(cfg.GenerativeTerms) > 0 {
		e.generativeTerms = lowerAll(cfg.GenerativeTerms)
	}
	if len(cfg.AgriFoodTerms) > 0 {
		e.agriFoodTerms = lowerAll(cfg.AgriFoodTerms)
	}
	if len(cfg.Categories) > 0 {
		e.categories = make(map[string][]string, len(cfg.Categories))
		for name, keywords := range cfg.Categories {
			e.categories[name] = lowerAll(keywords)
		}
	}
	return e
}

// IsRelevant reports whether the record belongs in the corpus: the
// case-folded title+abstract must contain at least one phrase from the
// generative family AND one from the agri-food family. A conjunctive gate,
// not a score.
func (e *Engine) IsRelevant(p types.PaperRecord) bool {
	text := searchText(p)
	return containsAny(text, e.generativeTerms) && containsAny(text, e.agriFoodTerms)
}

// Categorize returns the sorted category names whose keyword list matches
// the record's title+abstract. Records matching nothing get {"Other"}, so
// the result is never empty.
func (e *Engine) Categorize(p types.PaperRecord) []string {
	text := searchText(p)
	var matched []string
	for name, keywords := range e.categories {
		if containsAny(text, keywords) {
			matched = append(matched, name)
		}
	}
	if len(matched) == 0 {
		return []string{CategoryOther}
	}
	sort.Strings(matched)
	return matched
}

func searchText(p types.PaperRecord) string {
	return strings.ToLower(p.Title + " " + p.Abstract)
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
