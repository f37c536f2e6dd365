// Package dictionary loads the static translation tables and curated rule
// sets. A dictionary is immutable after Load.
package dictionary

import (
	"github.com/MimeLyc/dialogue-translator/internal/fix"
	"github.com/MimeLyc/dialogue-translator/internal/lookup"
)

// Dictionary holds the static segments of the lookup table and the rule sets
// the pipeline runs around a translation call.
type Dictionary struct {
	Main             lookup.Table
	Player           lookup.Table
	Overwrite        lookup.Table
	AfterTranslation lookup.Table
	ChName           lookup.Table
	NamePrefixes     lookup.Table

	Subtitle fix.RuleSet
	JP1      fix.RuleSet
	JP2      fix.RuleSet
	Ignore   *fix.SkipPolicy

	ListReverse    fix.RuleSet
	ListHira       fix.RuleSet
	ListCrystalium fix.RuleSet
}

// DefaultNamePrefixes are the transliteration prefixes used when the
// dictionary does not define its own.
func DefaultNamePrefixes() lookup.Table {
	return lookup.Table{
		{Pattern: "ルル", Replacement: "路路"},
		{Pattern: "ル", Replacement: "路"},
		{Pattern: "ア", Replacement: "阿"},
	}
}

// Rules returns the ordered domain rules bound to this dictionary's lists.
func (d *Dictionary) Rules() []fix.Rule {
	return fix.DefaultRules(d.ListCrystalium)
}

// source is the raw on-disk form shared by the JSON files and YAML bundle.
type source struct {
	Main             lookup.Table `json:"main" yaml:"main"`
	Player           lookup.Table `json:"player" yaml:"player"`
	Overwrite        lookup.Table `json:"overwrite" yaml:"overwrite"`
	AfterTranslation lookup.Table `json:"afterTranslation" yaml:"afterTranslation"`
	ChName           lookup.Table `json:"chName" yaml:"chName"`
	NamePrefixes     lookup.Table `json:"namePrefixes" yaml:"namePrefixes"`
	Subtitle         lookup.Table `json:"subtitle" yaml:"subtitle"`
	JP1              lookup.Table `json:"jp1" yaml:"jp1"`
	JP2              lookup.Table `json:"jp2" yaml:"jp2"`
	Ignore           lookup.Table `json:"ignore" yaml:"ignore"`
	ListReverse      []string     `json:"listReverse" yaml:"listReverse"`
	ListHira         []string     `json:"listHira" yaml:"listHira"`
	ListCrystalium   []string     `json:"listCrystalium" yaml:"listCrystalium"`
}

func (s *source) compile() (*Dictionary, error) {
	d := &Dictionary{
		Main:             s.Main,
		Player:           s.Player,
		Overwrite:        s.Overwrite,
		AfterTranslation: s.AfterTranslation,
		ChName:           s.ChName,
		NamePrefixes:     s.NamePrefixes,
	}
	if len(d.NamePrefixes) == 0 {
		d.NamePrefixes = DefaultNamePrefixes()
	}

	var err error
	if d.Subtitle, err = fix.CompileRuleSet(s.Subtitle); err != nil {
		return nil, &LoadError{Section: "subtitle", Err: err}
	}
	if d.JP1, err = fix.CompileRuleSet(s.JP1); err != nil {
		return nil, &LoadError{Section: "jp1", Err: err}
	}
	if d.JP2, err = fix.CompileRuleSet(s.JP2); err != nil {
		return nil, &LoadError{Section: "jp2", Err: err}
	}
	if d.Ignore, err = fix.NewSkipPolicy(s.Ignore); err != nil {
		return nil, &LoadError{Section: "ignore", Err: err}
	}
	if d.ListReverse, err = fix.CompileList(s.ListReverse); err != nil {
		return nil, &LoadError{Section: "listReverse", Err: err}
	}
	if d.ListHira, err = fix.CompileList(s.ListHira); err != nil {
		return nil, &LoadError{Section: "listHira", Err: err}
	}
	if d.ListCrystalium, err = fix.CompileList(s.ListCrystalium); err != nil {
		return nil, &LoadError{Section: "listCrystalium", Err: err}
	}
	return d, nil
}

// LoadError reports the dictionary section that failed to load.
type LoadError struct {
	Section string
	Err     error
}

func (e *LoadError) Error() string {
	return "dictionary section " + e.Section + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
