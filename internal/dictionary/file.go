package dictionary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BundleFilename is the single-file YAML form of a dictionary.
const BundleFilename = "dictionary.yaml"

// FindInAncestors walks up from startDir looking for a dictionary bundle.
// Returns the directory holding it or empty string.
func FindInAncestors(startDir string) string {
	currentDir := startDir
	for {
		if _, err := os.Stat(filepath.Join(currentDir, BundleFilename)); err == nil {
			return currentDir
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// Load reads a dictionary from dir. A dictionary.yaml bundle takes precedence;
// otherwise each section is read from "<section>.json". Missing files leave
// their section empty.
func Load(dir string) (*Dictionary, error) {
	var src source

	data, err := os.ReadFile(filepath.Join(dir, BundleFilename))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &src); err != nil {
			return nil, fmt.Errorf("parse %s: %w", BundleFilename, err)
		}
		return src.compile()
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	sections := map[string]any{
		"main":              &src.Main,
		"player":            &src.Player,
		"overwrite":         &src.Overwrite,
		"after-translation": &src.AfterTranslation,
		"ch-name":           &src.ChName,
		"name-prefix":       &src.NamePrefixes,
		"subtitle":          &src.Subtitle,
		"jp1":               &src.JP1,
		"jp2":               &src.JP2,
		"ignore":            &src.Ignore,
		"list-reverse":      &src.ListReverse,
		"list-hira":         &src.ListHira,
		"list-crystalium":   &src.ListCrystalium,
	}
	for name, dst := range sections {
		if err := readJSON(filepath.Join(dir, name+".json"), dst); err != nil {
			return nil, &LoadError{Section: name, Err: err}
		}
	}
	return src.compile()
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
