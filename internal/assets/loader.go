package assets

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/readmission-guard/internal/model"
)

// Assets are the immutable artifacts shared by every session.
type Assets struct {
	Model        model.Model
	FeatureNames []string
}

// Loader reads the model and feature-name artifacts once per process.
type Loader struct {
	ModelPath        string
	FeatureNamesPath string

	once   sync.Once
	assets *Assets
	err    error
}

// NewLoader creates a loader for the given artifact paths
func NewLoader(modelPath, featureNamesPath string) *Loader {
	return &Loader{
		ModelPath:        modelPath,
		FeatureNamesPath: featureNamesPath,
	}
}

// Load returns the artifacts, reading them from disk on the first call only.
// Later calls return the cached assets or the cached error.
func (l *Loader) Load() (*Assets, error) {
	l.once.Do(func() {
		l.assets, l.err = l.load()
	})
	return l.assets, l.err
}

func (l *Loader) load() (*Assets, error) {
	// Check both paths up front so the error names the first missing artifact
	// without half-loading the other.
	for _, a := range []struct {
		asset Asset
		path  string
	}{
		{AssetModel, l.ModelPath},
		{AssetFeatureNames, l.FeatureNamesPath},
	} {
		if _, err := os.Stat(a.path); errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingAssetError{Asset: a.asset, Path: a.path}
		}
	}

	m, err := loadModel(l.ModelPath)
	if err != nil {
		return nil, err
	}

	names, err := loadFeatureNames(l.FeatureNamesPath)
	if err != nil {
		return nil, err
	}

	if err := checkCompatible(m, names, l.ModelPath); err != nil {
		return nil, err
	}

	slog.Info("Assets loaded",
		"model", m.Name(),
		"model_path", l.ModelPath,
		"features", len(names),
	)

	return &Assets{Model: m, FeatureNames: names}, nil
}

func loadModel(path string) (model.Model, error) {
	var (
		m   model.Model
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		m, err = model.LoadTreeEnsembleFile(path)
	case ".txt", ".model":
		m, err = model.LoadLeavesFile(path)
	default:
		err = fmt.Errorf("unrecognised model format %q", filepath.Ext(path))
	}

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingAssetError{Asset: AssetModel, Path: path}
		}
		return nil, &InvalidAssetError{Asset: AssetModel, Path: path, Err: err}
	}
	return m, nil
}

// loadFeatureNames reads a JSON array, a YAML sequence, or one name per line.
func loadFeatureNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingAssetError{Asset: AssetFeatureNames, Path: path}
		}
		return nil, &InvalidAssetError{Asset: AssetFeatureNames, Path: path, Err: err}
	}

	var names []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &names)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &names)
	default:
		names, err = parseLines(string(data))
	}
	if err != nil {
		return nil, &InvalidAssetError{Asset: AssetFeatureNames, Path: path, Err: err}
	}

	if len(names) == 0 {
		return nil, &InvalidAssetError{Asset: AssetFeatureNames, Path: path, Err: errors.New("feature list is empty")}
	}

	seen := make(map[string]struct{}, len(names))
	for i, n := range names {
		if n == "" {
			return nil, &InvalidAssetError{Asset: AssetFeatureNames, Path: path, Err: fmt.Errorf("feature %d has an empty name", i)}
		}
		if _, dup := seen[n]; dup {
			return nil, &InvalidAssetError{Asset: AssetFeatureNames, Path: path, Err: fmt.Errorf("duplicate feature name %q", n)}
		}
		seen[n] = struct{}{}
	}

	return names, nil
}

func parseLines(s string) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			names = append(names, line)
		}
	}
	return names, scanner.Err()
}

func checkCompatible(m model.Model, names []string, modelPath string) error {
	if n := m.NumFeatures(); n > 0 && n != len(names) {
		return &InvalidAssetError{
			Asset: AssetModel,
			Path:  modelPath,
			Err:   fmt.Errorf("model expects %d features but the feature list has %d", n, len(names)),
		}
	}

	if named, ok := m.(interface{ FeatureNames() []string }); ok {
		if own := named.FeatureNames(); len(own) > 0 && !slices.Equal(own, names) {
			return &InvalidAssetError{
				Asset: AssetModel,
				Path:  modelPath,
				Err:   errors.New("model feature names do not match the feature list order"),
			}
		}
	}

	return nil
}
