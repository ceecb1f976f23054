package prediction

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"slices"

	"github.com/klauspost/compress/zstd"

	"github.com/kilianp07/battery-health/core/model"
)

// ArtifactVersion is bumped whenever the features, the outputs or the
// encoding of a persisted forest change.
const ArtifactVersion = 1

var artifactMagic = []byte("BHM1")

var (
	// ErrArtifactNotFound is returned by stores holding no artifact.
	ErrArtifactNotFound = errors.New("model artifact not found")
	// ErrCorruptArtifact is returned for artifacts that cannot be decoded.
	ErrCorruptArtifact = errors.New("corrupt model artifact")
	// ErrSchemaMismatch is returned for artifacts written for other
	// features, outputs or format versions. Delete the artifact to retrain.
	ErrSchemaMismatch = errors.New("model artifact schema mismatch")
)

// Schema identifies what a persisted forest was trained on.
type Schema struct {
	Version  int
	Features []string
	Outputs  []string
}

// CurrentSchema describes forests produced by this package.
func CurrentSchema() Schema {
	return Schema{
		Version:  ArtifactVersion,
		Features: model.FeatureNames[:],
		Outputs:  []string{"health", "remaining_distance"},
	}
}

func (s Schema) equal(o Schema) bool {
	return s.Version == o.Version && slices.Equal(s.Features, o.Features) && slices.Equal(s.Outputs, o.Outputs)
}

type artifact struct {
	Schema Schema
	Trees  []*Tree
}

// EncodeForest serialises f: a magic header followed by a zstd-compressed
// gob stream of the schema and trees. Floats round-trip exactly.
func EncodeForest(f *Forest) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(artifactMagic)
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(artifact{Schema: CurrentSchema(), Trees: f.Trees}); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("encode forest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("flush forest: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeForest parses an artifact produced by EncodeForest.
func DecodeForest(b []byte) (*Forest, error) {
	if !bytes.HasPrefix(b, artifactMagic) {
		return nil, fmt.Errorf("%w: bad header", ErrCorruptArtifact)
	}
	zr, err := zstd.NewReader(bytes.NewReader(b[len(artifactMagic):]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	defer zr.Close()
	var a artifact
	if err := gob.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if want := CurrentSchema(); !a.Schema.equal(want) {
		return nil, fmt.Errorf("%w: artifact v%d %v -> %v, want v%d %v -> %v", ErrSchemaMismatch,
			a.Schema.Version, a.Schema.Features, a.Schema.Outputs, want.Version, want.Features, want.Outputs)
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrCorruptArtifact)
	}
	for i, t := range a.Trees {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrCorruptArtifact, i, err)
		}
	}
	return &Forest{Trees: a.Trees}, nil
}

// validate checks that every path through the tree terminates at a leaf.
func (t *Tree) validate() error {
	if t == nil {
		return errors.New("nil tree")
	}
	n := len(t.Feature)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n*NumOutputs {
		return errors.New("inconsistent node arrays")
	}
	for i := 0; i < n; i++ {
		f := t.Feature[i]
		if f == leafFeature {
			continue
		}
		if f < 0 || int(f) >= model.NumFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, f)
		}
		// Children are always appended after their parent.
		l, r := int(t.Left[i]), int(t.Right[i])
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d: bad children %d/%d", i, l, r)
		}
	}
	return nil
}
