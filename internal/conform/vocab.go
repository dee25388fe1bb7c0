package conform

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"dwcli/pkg/contracts/domain"
)

// Vocabulary maps raw categorical codes to canonical values for one
// field. Lookup trims and case-folds the input first; anything outside
// the table maps to the n/a sentinel, never to null and never to an
// error. Normalizing an already-canonical value returns it unchanged.
type Vocabulary struct {
	name      string
	mapping   map[string]string
	canonical map[string]string // case-folded canonical -> canonical
}

// NewVocabulary builds a vocabulary from a code-to-canonical table.
// Table keys are matched case-insensitively.
func NewVocabulary(name string, mapping map[string]string) Vocabulary {
	v := Vocabulary{
		name:      name,
		mapping:   make(map[string]string, len(mapping)),
		canonical: make(map[string]string),
	}
	for code, value := range mapping {
		v.mapping[fold(code)] = value
		v.canonical[fold(value)] = value
	}
	return v
}

func fold(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Name returns the field this vocabulary serves.
func (v Vocabulary) Name() string {
	return v.name
}

// Normalize maps a raw value to its canonical form, or the n/a sentinel
// when the value is unknown, empty, or null.
func (v Vocabulary) Normalize(raw string) string {
	key := fold(raw)
	if key == "" {
		return domain.NotAvailable
	}
	if value, ok := v.mapping[key]; ok {
		return value
	}
	if value, ok := v.canonical[key]; ok {
		return value
	}
	return domain.NotAvailable
}

// IsCanonical reports whether value belongs to the vocabulary's canonical
// set. The n/a sentinel is always canonical output, never canonical
// vocabulary.
func (v Vocabulary) IsCanonical(value string) bool {
	_, ok := v.canonical[fold(value)]
	return ok
}

// Canonical returns the sorted distinct canonical values.
func (v Vocabulary) Canonical() []string {
	seen := make(map[string]bool, len(v.canonical))
	var out []string
	for _, value := range v.canonical {
		if !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}
	sort.Strings(out)
	return out
}

// VocabularySet holds the vocabularies used by the conformance stages.
// Vocabularies are configuration: the compiled-in defaults can be
// replaced wholesale from a YAML rule file.
type VocabularySet struct {
	MaritalStatus Vocabulary
	Gender        Vocabulary
	ProductLine   Vocabulary
	Country       Vocabulary
}

// DefaultVocabularies returns the built-in canonical vocabularies.
func DefaultVocabularies() *VocabularySet {
	return &VocabularySet{
		MaritalStatus: NewVocabulary("marital_status", map[string]string{
			"S": "Single",
			"M": "Married",
		}),
		Gender: NewVocabulary("gender", map[string]string{
			"F":      "Female",
			"FEMALE": "Female",
			"M":      "Male",
			"MALE":   "Male",
		}),
		ProductLine: NewVocabulary("product_line", map[string]string{
			"M": "Mountain",
			"R": "Road",
			"S": "Other Sales",
			"T": "Touring",
		}),
		Country: NewVocabulary("country", map[string]string{
			"DE":  "Germany",
			"US":  "United States",
			"USA": "United States",
		}),
	}
}

// LoadVocabularies reads a YAML file of field -> {code: canonical}
// tables. Fields present in the file replace the corresponding default
// vocabulary; absent fields keep the defaults.
func LoadVocabularies(path string) (*VocabularySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse vocabulary file: %w", err)
	}

	set := DefaultVocabularies()
	for field, mapping := range raw {
		vocab := NewVocabulary(field, mapping)
		switch field {
		case "marital_status":
			set.MaritalStatus = vocab
		case "gender":
			set.Gender = vocab
		case "product_line":
			set.ProductLine = vocab
		case "country":
			set.Country = vocab
		default:
			return nil, fmt.Errorf("unknown vocabulary field %q", field)
		}
	}
	return set, nil
}
