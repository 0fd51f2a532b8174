package nlu

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"azura/pkg/util"
)

var (
	// ErrNoBundle means none of the bundle artifacts exist on disk.
	ErrNoBundle = errors.New("no persisted bundle")
	// ErrBundleMismatch means the artifacts were not written by the same Save.
	ErrBundleMismatch = errors.New("bundle artifacts do not belong together")
)

// Bundle is everything needed to run inference. Its parts are only valid
// together.
type Bundle struct {
	Model      *Model
	Vocabulary *Vocabulary
	Labels     LabelSet
	MaxSeqSize int

	// Version is set by Save and Load; it identifies one saved bundle.
	Version string
}

type artifactDigests struct {
	Weights    string `json:"weights"`
	Vocabulary string `json:"vocabulary"`
	Labels     string `json:"labels"`
}

type modelConfig struct {
	MaxSeqSize int             `json:"max_seq_size"`
	Version    string          `json:"version"`
	Digests    artifactDigests `json:"sha256"`
}

// Paths names the four artifacts of a bundle.
type Paths struct {
	Weights    string
	Vocabulary string
	Labels     string
	Config     string
}

func DefaultPaths(dir string) Paths {
	return Paths{
		Weights:    filepath.Join(dir, "model.gob"),
		Vocabulary: filepath.Join(dir, "tokenizer.json"),
		Labels:     filepath.Join(dir, "label_encoder.json"),
		Config:     filepath.Join(dir, "config.json"),
	}
}

func (p Paths) all() []string {
	return []string{p.Weights, p.Vocabulary, p.Labels, p.Config}
}

// Exists reports whether any artifact is present. A partial bundle counts,
// so that loading it fails loudly instead of being trained over.
func (p Paths) Exists() bool {
	for _, path := range p.all() {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// LoadError is returned for any missing, corrupt or inconsistent artifact.
type LoadError struct {
	Artifact string
	Err      error
}

func (e *LoadError) Error() string {
	if e.Artifact == "" {
		return fmt.Sprintf("load bundle: %v", e.Err)
	}
	return fmt.Sprintf("load bundle: %s: %v", e.Artifact, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Validate checks that the parts agree on their dimensions.
func (b *Bundle) Validate() error {
	if b.Model == nil || b.Vocabulary == nil {
		return errors.New("incomplete bundle")
	}
	if err := b.Model.validate(); err != nil {
		return err
	}
	if err := b.Labels.validate(); err != nil {
		return err
	}
	if b.MaxSeqSize <= 0 {
		return fmt.Errorf("max_seq_size %d must be positive", b.MaxSeqSize)
	}
	if b.Vocabulary.Size() != b.Model.Inputs() {
		return fmt.Errorf("vocabulary size %d does not match model inputs %d", b.Vocabulary.Size(), b.Model.Inputs())
	}
	if b.Labels.Len() != b.Model.Classes() {
		return fmt.Errorf("label count %d does not match model outputs %d", b.Labels.Len(), b.Model.Classes())
	}
	return nil
}

// Equal compares vocabulary, labels and sequence length.
func (b *Bundle) Equal(o *Bundle) bool {
	return b.MaxSeqSize == o.MaxSeqSize &&
		b.Vocabulary.Equal(o.Vocabulary) &&
		util.EqualSlices([]string(b.Labels), []string(o.Labels), func(x, y string) bool { return x == y })
}

// Predict encodes sentence and returns the decoded intent.
func (b *Bundle) Predict(sentence string) (string, error) {
	return b.Labels.Decode(b.Model.Predict(b.Vocabulary.Encode(sentence, b.MaxSeqSize)))
}

// Save writes the four artifacts under a fresh version id. The config
// artifact is written last and records the digest of the other three, so a
// save that dies halfway leaves a bundle that Load rejects.
func Save(b *Bundle, p Paths) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("save bundle: %w", err)
	}

	var weights, vocab, labels bytes.Buffer
	if err := gob.NewEncoder(&weights).Encode(b.Model); err != nil {
		return fmt.Errorf("save bundle: encode weights: %w", err)
	}
	if err := json.NewEncoder(&vocab).Encode(b.Vocabulary); err != nil {
		return fmt.Errorf("save bundle: encode vocabulary: %w", err)
	}
	if err := json.NewEncoder(&labels).Encode(b.Labels); err != nil {
		return fmt.Errorf("save bundle: encode labels: %w", err)
	}

	cfg := modelConfig{
		MaxSeqSize: b.MaxSeqSize,
		Version:    uuid.NewString(),
		Digests: artifactDigests{
			Weights:    digest(weights.Bytes()),
			Vocabulary: digest(vocab.Bytes()),
			Labels:     digest(labels.Bytes()),
		},
	}
	var config bytes.Buffer
	if err := json.NewEncoder(&config).Encode(cfg); err != nil {
		return fmt.Errorf("save bundle: encode config: %w", err)
	}

	writes := []struct {
		path string
		data []byte
	}{
		{p.Weights, weights.Bytes()},
		{p.Vocabulary, vocab.Bytes()},
		{p.Labels, labels.Bytes()},
		{p.Config, config.Bytes()},
	}
	for _, wr := range writes {
		if err := writeAtomic(wr.path, wr.data); err != nil {
			return fmt.Errorf("save bundle: %s: %w", wr.path, err)
		}
	}

	b.Version = cfg.Version
	return nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads all four artifacts. It either returns a complete, consistent
// bundle from a single Save or a single *LoadError.
func Load(p Paths) (*Bundle, error) {
	if !p.Exists() {
		return nil, &LoadError{Err: ErrNoBundle}
	}

	data := make(map[string][]byte, 4)
	for _, path := range p.all() {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Artifact: path, Err: err}
		}
		data[path] = raw
	}

	var cfg modelConfig
	if err := json.Unmarshal(data[p.Config], &cfg); err != nil {
		return nil, &LoadError{Artifact: p.Config, Err: err}
	}
	if cfg.Version == "" {
		return nil, &LoadError{Artifact: p.Config, Err: fmt.Errorf("%w: no version", ErrBundleMismatch)}
	}
	for path, want := range map[string]string{
		p.Weights:    cfg.Digests.Weights,
		p.Vocabulary: cfg.Digests.Vocabulary,
		p.Labels:     cfg.Digests.Labels,
	} {
		if digest(data[path]) != want {
			return nil, &LoadError{Artifact: path, Err: fmt.Errorf("%w: not from version %s", ErrBundleMismatch, cfg.Version)}
		}
	}

	model := new(Model)
	if err := gob.NewDecoder(bytes.NewReader(data[p.Weights])).Decode(model); err != nil {
		return nil, &LoadError{Artifact: p.Weights, Err: err}
	}

	vocab := new(Vocabulary)
	if err := json.Unmarshal(data[p.Vocabulary], vocab); err != nil {
		return nil, &LoadError{Artifact: p.Vocabulary, Err: err}
	}

	var labels LabelSet
	if err := json.Unmarshal(data[p.Labels], &labels); err != nil {
		return nil, &LoadError{Artifact: p.Labels, Err: err}
	}

	b := &Bundle{Model: model, Vocabulary: vocab, Labels: labels, MaxSeqSize: cfg.MaxSeqSize, Version: cfg.Version}
	if err := b.Validate(); err != nil {
		return nil, &LoadError{Err: err}
	}
	return b, nil
}
