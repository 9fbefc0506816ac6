package cleaning

import (
	"maps"
	"os"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Reference bundles the lookup tables used by the Normalizer.
// Ordered tables are slices so iteration order is part of the data.
type Reference struct {
	NameReplacements   []Replacement
	Exchanges          map[string]string
	CountryFixes       map[string]string
	LegacyCountryFixes map[string]string
	Countries          map[string]string
	Regions            map[string]string
	Categories         []Category
	GenericTechTokens  []string
}

// DefaultReference returns a fresh copy of the built-in tables.
func DefaultReference() *Reference {
	cats := make([]Category, len(techCategories))
	for i, c := range techCategories {
		cats[i] = Category{Name: c.Name, Keywords: slices.Clone(c.Keywords)}
	}
	return &Reference{
		NameReplacements:   slices.Clone(nameReplacements),
		Exchanges:          maps.Clone(exchangeNames),
		CountryFixes:       maps.Clone(countryFixes),
		LegacyCountryFixes: maps.Clone(legacyCountryFixes),
		Countries:          maps.Clone(countryNames),
		Regions:            maps.Clone(countryRegions),
		Categories:         cats,
		GenericTechTokens:  slices.Clone(genericTechTokens),
	}
}

// referenceFile is the YAML shape of a reference override file.
// Map sections add or replace entries; list sections replace the whole list.
type referenceFile struct {
	NameReplacements  []Replacement     `yaml:"name_replacements"`
	Exchanges         map[string]string `yaml:"exchanges"`
	CountryFixes      map[string]string `yaml:"country_fixes"`
	Countries         map[string]string `yaml:"countries"`
	Regions           map[string]string `yaml:"regions"`
	Categories        []Category        `yaml:"categories"`
	GenericTechTokens []string          `yaml:"generic_tech_tokens"`
}

// LoadReference reads a YAML override file and applies it on top of the
// built-in tables. An empty path returns the defaults.
func LoadReference(path string) (*Reference, error) {
	ref := DefaultReference()
	if path == "" {
		return ref, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "cleaning: read reference file %s", path)
	}
	if err := ref.apply(data); err != nil {
		return nil, eris.Wrapf(err, "cleaning: parse reference file %s", path)
	}
	return ref, nil
}

func (r *Reference) apply(data []byte) error {
	var f referenceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	if len(f.NameReplacements) > 0 {
		r.NameReplacements = f.NameReplacements
	}
	if len(f.Categories) > 0 {
		for _, c := range f.Categories {
			if c.Name == "" {
				return eris.New("category without name")
			}
		}
		r.Categories = f.Categories
	}
	if len(f.GenericTechTokens) > 0 {
		r.GenericTechTokens = f.GenericTechTokens
	}
	maps.Copy(r.Exchanges, f.Exchanges)
	maps.Copy(r.CountryFixes, f.CountryFixes)
	maps.Copy(r.Countries, f.Countries)
	maps.Copy(r.Regions, f.Regions)
	return nil
}
