// Package richtext converts legacy free-text fields into the block document
// format accepted by the storefront editor.
package richtext

import (
	"encoding/json"
	"html"
	"strings"
	"time"

	"github.com/erp/catalog-migrator/internal/domain/shared"
)

const (
	// FormatVersion is the editor format version stamped on every document
	FormatVersion = "2.24.3"
	// BlockTypeParagraph is the only block type produced
	BlockTypeParagraph = "paragraph"
	// BlockIDLength is the length of generated block ids
	BlockIDLength = 8
)

// Document is a structured rich-text document
type Document struct {
	Time    int64   `json:"time"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version"`
}

// Block is one block of a Document
type Block struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data BlockData `json:"data"`
}

// BlockData holds the payload of a paragraph block
type BlockData struct {
	Text string `json:"text"`
}

// Text returns the concatenated text of all paragraph blocks
func (d Document) Text() string {
	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		parts = append(parts, b.Data.Text)
	}
	return strings.Join(parts, "\n")
}

// IsEmpty reports whether the document carries no text at all
func (d Document) IsEmpty() bool {
	return strings.TrimSpace(d.Text()) == ""
}

// JSON serializes the document in the wire form expected by JSONString inputs
func (d Document) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Normalizer strips legacy envelopes and produces Documents
type Normalizer struct {
	now   func() time.Time
	newID func() string
}

// NewNormalizer creates a Normalizer using the wall clock and random block ids
func NewNormalizer() *Normalizer {
	return &Normalizer{
		now: time.Now,
		newID: func() string {
			return shared.RandomAlphanumeric(BlockIDLength)
		},
	}
}

// NewNormalizerWith creates a Normalizer with a fixed clock and id source
func NewNormalizerWith(now func() time.Time, newID func() string) *Normalizer {
	n := NewNormalizer()
	if now != nil {
		n.now = now
	}
	if newID != nil {
		n.newID = newID
	}
	return n
}

// Normalize purifies raw and wraps the result into a single-paragraph Document
func (n *Normalizer) Normalize(raw string) Document {
	return n.Wrap(Purify(raw))
}

// Wrap puts plain text into a single-paragraph Document
func (n *Normalizer) Wrap(text string) Document {
	return Document{
		Time: n.now().Unix(),
		Blocks: []Block{
			{
				ID:   n.newID(),
				Type: BlockTypeParagraph,
				Data: BlockData{Text: text},
			},
		},
		Version: FormatVersion,
	}
}

// Purify unwraps every nested {"sk": "..."} envelope and decodes HTML
// entities. Text that is not an envelope is only entity-decoded.
func Purify(raw string) string {
	text := raw
	if inner, ok := unwrap(raw); ok {
		text = inner
		for text != "" {
			next, ok := unwrap(text)
			if !ok {
				break
			}
			text = next
		}
	}
	return html.UnescapeString(text)
}

type legacyEnvelope struct {
	SK *string `json:"sk"`
}

// unwrap parses s as an object holding exactly the "sk" string field.
// Objects carrying other languages next to "sk" are not envelopes.
func unwrap(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var env legacyEnvelope
	if err := dec.Decode(&env); err != nil || env.SK == nil {
		return "", false
	}
	if dec.More() {
		return "", false
	}
	return *env.SK, true
}
