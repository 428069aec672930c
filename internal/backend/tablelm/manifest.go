package tablelm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk description of a table language model.
//
// Token pieces are referenced by their text everywhere (BOS, EOG, bigrams),
// so manifests stay readable. Logits for the next position are the hashed
// base noise for (previous token, candidate) plus any bigram weight.
type Manifest struct {
	Name            string                        `json:"name" yaml:"name" toml:"name"`
	Architecture    string                        `json:"architecture,omitempty" yaml:"architecture,omitempty" toml:"architecture,omitempty"`
	Quantization    string                        `json:"quantization,omitempty" yaml:"quantization,omitempty" toml:"quantization,omitempty"`
	ContextLength   int                           `json:"context_length" yaml:"context_length" toml:"context_length"`
	EmbeddingLength int                           `json:"embedding_length,omitempty" yaml:"embedding_length,omitempty" toml:"embedding_length,omitempty"`
	Layers          int                           `json:"layers,omitempty" yaml:"layers,omitempty" toml:"layers,omitempty"`
	Heads           int                           `json:"heads,omitempty" yaml:"heads,omitempty" toml:"heads,omitempty"`
	Embedding       bool                          `json:"embedding,omitempty" yaml:"embedding,omitempty" toml:"embedding,omitempty"`
	Vision          bool                          `json:"vision,omitempty" yaml:"vision,omitempty" toml:"vision,omitempty"`
	ChatTemplate    string                        `json:"chat_template,omitempty" yaml:"chat_template,omitempty" toml:"chat_template,omitempty"`
	BOS             string                        `json:"bos,omitempty" yaml:"bos,omitempty" toml:"bos,omitempty"`
	EOG             []string                      `json:"eog,omitempty" yaml:"eog,omitempty" toml:"eog,omitempty"`
	Unknown         string                        `json:"unk,omitempty" yaml:"unk,omitempty" toml:"unk,omitempty"`
	Noise           float32                       `json:"noise,omitempty" yaml:"noise,omitempty" toml:"noise,omitempty"`
	Vocab           []string                      `json:"vocab" yaml:"vocab" toml:"vocab"`
	Bigrams         map[string]map[string]float32 `json:"bigrams,omitempty" yaml:"bigrams,omitempty" toml:"bigrams,omitempty"`
}

// Extensions accepted by the backend. The final extension selects the codec.
var Extensions = []string{".tlm.yaml", ".tlm.yml", ".tlm.json", ".tlm.toml"}

const (
	defaultContextLength   = 2048
	defaultEmbeddingLength = 16
	defaultNoise           = 0.1
)

// decodeManifest parses b according to the file extension of path.
func decodeManifest(path string, b []byte) (Manifest, error) {
	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &m); err != nil {
			return m, err
		}
	case ".json":
		if err := json.Unmarshal(b, &m); err != nil {
			return m, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &m); err != nil {
			return m, err
		}
	default:
		return m, fmt.Errorf("unsupported manifest extension: %s", ext)
	}
	return m, nil
}

// WriteFile encodes m to path, choosing the codec from the extension.
func WriteFile(path string, m Manifest) error {
	var (
		b   []byte
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(m)
	case ".json":
		b, err = json.MarshalIndent(m, "", "  ")
	case ".toml":
		b, err = toml.Marshal(m)
	default:
		return fmt.Errorf("unsupported manifest extension: %s", ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// validate applies defaults and checks that every referenced piece exists.
func (m *Manifest) validate() error {
	if len(m.Vocab) == 0 {
		return errors.New("vocab is empty")
	}
	if m.ContextLength <= 0 {
		m.ContextLength = defaultContextLength
	}
	if m.EmbeddingLength <= 0 {
		m.EmbeddingLength = defaultEmbeddingLength
	}
	if m.Noise == 0 {
		m.Noise = defaultNoise
	}
	seen := make(map[string]struct{}, len(m.Vocab))
	for i, p := range m.Vocab {
		if p == "" {
			return fmt.Errorf("vocab[%d] is empty", i)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("duplicate vocab piece %q", p)
		}
		seen[p] = struct{}{}
	}
	check := func(what, piece string) error {
		if _, ok := seen[piece]; !ok {
			return fmt.Errorf("%s piece %q not in vocab", what, piece)
		}
		return nil
	}
	if m.BOS != "" {
		if err := check("bos", m.BOS); err != nil {
			return err
		}
	}
	if m.Unknown != "" {
		if err := check("unk", m.Unknown); err != nil {
			return err
		}
	}
	for _, p := range m.EOG {
		if err := check("eog", p); err != nil {
			return err
		}
	}
	for prev, next := range m.Bigrams {
		if err := check("bigram", prev); err != nil {
			return err
		}
		for p := range next {
			if err := check("bigram", p); err != nil {
				return err
			}
		}
	}
	return nil
}
