// Package classifier evaluates the pre-trained fallback model used when a
// patient has too little history for a personal baseline.
//
// The model is a decision forest exported by the offline trainer as YAML.
// Each split sends values <= threshold left, matching the trainer's
// convention. The forest predicts by majority vote; ties resolve to normal.
package classifier

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	Normal    = 0
	Irregular = 1

	maxDepth = 64
)

const (
	FeatureTemperature = "temperature"
	FeatureSpO2        = "spo2"
	FeatureHeartRate   = "heart_rate"
)

var ErrInvalidFeatures = errors.New("classifier: features must be finite")

//go:embed default_forest.yaml
var defaultArtifact []byte

// Features is the model input vector.
type Features struct {
	Temperature float64
	SpO2        float64
	HeartRate   float64
}

func (f Features) value(name string) float64 {
	switch name {
	case FeatureTemperature:
		return f.Temperature
	case FeatureSpO2:
		return f.SpO2
	default:
		return f.HeartRate
	}
}

// Classifier returns Normal or Irregular for a feature vector.
type Classifier interface {
	Predict(f Features) (int, error)
}

// Node is a split or, when Class is set, a leaf.
type Node struct {
	Feature   string  `yaml:"feature,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`
	Left      *Node   `yaml:"left,omitempty"`
	Right     *Node   `yaml:"right,omitempty"`
	Class     *int    `yaml:"class,omitempty"`
}

type Tree struct {
	Root *Node `yaml:"root"`
}

// Forest is read-only once loaded and safe for concurrent use.
type Forest struct {
	Name    string `yaml:"name"`
	Version int    `yaml:"version"`
	Trees   []Tree `yaml:"trees"`
}

// Parse decodes and validates a forest artifact.
func Parse(data []byte) (*Forest, error) {
	var f Forest
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse forest: %w", err)
	}
	if len(f.Trees) == 0 {
		return nil, errors.New("parse forest: no trees")
	}
	for i, t := range f.Trees {
		if err := validateNode(t.Root, 0); err != nil {
			return nil, fmt.Errorf("parse forest: tree %d: %w", i, err)
		}
	}
	return &f, nil
}

// LoadFile reads a forest artifact from disk.
func LoadFile(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %q: %w", path, err)
	}
	return Parse(data)
}

// Default returns the forest bundled with the binary.
func Default() (*Forest, error) {
	return Parse(defaultArtifact)
}

// Load returns the forest at path, or the bundled one when path is empty.
func Load(path string) (*Forest, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

func validateNode(n *Node, depth int) error {
	if n == nil {
		return errors.New("missing node")
	}
	if depth > maxDepth {
		return fmt.Errorf("deeper than %d levels", maxDepth)
	}
	if n.Class != nil {
		if n.Left != nil || n.Right != nil {
			return errors.New("leaf with children")
		}
		if *n.Class != Normal && *n.Class != Irregular {
			return fmt.Errorf("unknown class %d", *n.Class)
		}
		return nil
	}
	switch n.Feature {
	case FeatureTemperature, FeatureSpO2, FeatureHeartRate:
	default:
		return fmt.Errorf("unknown feature %q", n.Feature)
	}
	if err := validateNode(n.Left, depth+1); err != nil {
		return err
	}
	return validateNode(n.Right, depth+1)
}

func (t Tree) predict(f Features) int {
	n := t.Root
	for n.Class == nil {
		if f.value(n.Feature) <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return *n.Class
}

func (f *Forest) Predict(x Features) (int, error) {
	for _, v := range []float64{x.Temperature, x.SpO2, x.HeartRate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrInvalidFeatures
		}
	}

	votes := 0
	for _, t := range f.Trees {
		votes += t.predict(x)
	}
	if 2*votes > len(f.Trees) {
		return Irregular, nil
	}
	return Normal, nil
}
