package stock_rotation

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	// FamilyOther is assigned when a category prefix matches no known family.
	FamilyOther = "OTROS"
	// FamilyUnclassified is assigned when a product carries no category text.
	FamilyUnclassified = "SIN CLASIFICAR"
)

// FamilyEntry maps a category code prefix to a family name.
type FamilyEntry struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Family string `yaml:"family" json:"family"`
}

// FamilyTable resolves functional category codes such as "DERMO-ACNE" to families.
// Entry order matters for tolerant matching, so it is kept as a list.
type FamilyTable struct {
	entries []FamilyEntry
	exact   map[string]string
}

var defaultFamilies = []FamilyEntry{
	{"ADELG", "ADELGAZANTES"},
	{"ANTICEL", "ANTICELULITICOS"},
	{"AROMA", "AROMATERAPIA"},
	{"DEPORTE", "DEPORTE"},
	{"DERMO", "DERMO"},
	{"DIETSOE", "DIET SOE"},
	{"DIET", "DIETETICA"},
	{"EFECSOE", "EFEC SOE"},
	{"EFEC", "EFECTOS"},
	{"EFP", "EFP"},
	{"ESPEC", "ESPECIALIDAD"},
	{"ESPECSR", "ESPECIALIDAD"},
	{"FITO", "FITOTERAPIA"},
	{"HIGBUC", "HIG.BUCAL"},
	{"HIGCAP", "HIG.CAPILAR"},
	{"HIGCORP", "HIG.CORPORAL"},
	{"HOMEO", "HOMEOPATIA"},
	{"INFAN", "INFANTIL"},
	{"INFANSOE", "INFANTIL SOE"},
	{"INSEC", "INSECTOS"},
	{"NASOI", "NARIZ OIDOS"},
	{"OPTIC", "OPTICA"},
	{"ORTO", "ORTOPEDIA"},
	{"ORTOSOE", "ORTOPEDIA SOE"},
	{"PIEMAN", "PIES/MANOS"},
	{"GINEC", "SALUD GINECOLOGICA"},
	{"SEX", "SALUD SEXUAL"},
	{"SOL", "SOLARES"},
	{"VET", "VETERINARIA"},
	{"VACUNAS", "VACUNAS"},
	{"FORMULAS", "FORMULAS"},
	{"ENVASE", "ENVASE CLINICO"},
}

// DefaultFamilyTable returns the built-in pharmacy family table.
func DefaultFamilyTable() *FamilyTable {
	return NewFamilyTable(defaultFamilies)
}

// NewFamilyTable builds a table from ordered entries. Prefixes are uppercased and trimmed.
func NewFamilyTable(entries []FamilyEntry) *FamilyTable {
	t := &FamilyTable{exact: make(map[string]string, len(entries))}
	for _, e := range entries {
		prefix := strings.ToUpper(strings.TrimSpace(e.Prefix))
		if prefix == "" {
			continue
		}
		t.entries = append(t.entries, FamilyEntry{Prefix: prefix, Family: e.Family})
		if _, dup := t.exact[prefix]; !dup {
			t.exact[prefix] = e.Family
		}
	}

	return t
}

type familyFile struct {
	Families []FamilyEntry `yaml:"families"`
}

// ParseFamilyTable reads a YAML document of the form:
//
//	families:
//	  - prefix: DERMO
//	    family: DERMO
func ParseFamilyTable(data []byte) (*FamilyTable, error) {
	var doc familyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse family table: %w", err)
	}
	if len(doc.Families) == 0 {
		return nil, fmt.Errorf("family table has no entries")
	}

	return NewFamilyTable(doc.Families), nil
}

// LoadFamilyTable reads a YAML family table from path, or returns the default table when path is empty.
func LoadFamilyTable(path string) (*FamilyTable, error) {
	if path == "" {
		return DefaultFamilyTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read family table %s: %w", path, err)
	}

	return ParseFamilyTable(data)
}

// YAML renders the table in the format read by ParseFamilyTable.
func (t *FamilyTable) YAML() ([]byte, error) {
	data, err := yaml.Marshal(familyFile{Families: t.Entries()})
	if err != nil {
		return nil, fmt.Errorf("failed to render family table: %w", err)
	}

	return data, nil
}

// Entries returns a copy of the table in match order.
func (t *FamilyTable) Entries() []FamilyEntry {
	out := make([]FamilyEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Fingerprint identifies the table contents for cache keys.
func (t *FamilyTable) Fingerprint() string {
	h := sha1.New()
	for _, e := range t.entries {
		fmt.Fprintf(h, "%s=%s|", e.Prefix, e.Family)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Resolve returns the family and subfamily for a functional category text.
// Exact prefix matches win; otherwise the first entry where either code
// starts with the other is used, which tolerates truncated or extended codes.
func (t *FamilyTable) Resolve(categoryText string) (family, subfamily string) {
	if strings.TrimSpace(categoryText) == "" {
		return FamilyUnclassified, FamilyUnclassified
	}

	prefix, _, _ := strings.Cut(categoryText, "-")
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return FamilyOther, categoryText
	}

	if fam, ok := t.exact[prefix]; ok {
		return fam, categoryText
	}
	for _, e := range t.entries {
		if strings.HasPrefix(prefix, e.Prefix) || strings.HasPrefix(e.Prefix, prefix) {
			return e.Family, categoryText
		}
	}

	return FamilyOther, categoryText
}
