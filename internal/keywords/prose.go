package keywords

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

// ProseTagger tags text with the prose part-of-speech model
type ProseTagger struct{}

// Ensure ProseTagger implements Tagger
var _ Tagger = (*ProseTagger)(nil)

// NewProseTagger creates a new prose backed tagger
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Tag returns Penn Treebank NN* tokens as nouns and VB* tokens as verbs.
// A tagging failure yields no words.
func (p *ProseTagger) Tag(text string) TaggedWords {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return TaggedWords{}
	}

	var tagged TaggedWords
	for _, tok := range doc.Tokens() {
		switch {
		case strings.HasPrefix(tok.Tag, "NN"):
			tagged.Nouns = append(tagged.Nouns, tok.Text)
		case strings.HasPrefix(tok.Tag, "VB"):
			tagged.Verbs = append(tagged.Verbs, tok.Text)
		}
	}

	return tagged
}
