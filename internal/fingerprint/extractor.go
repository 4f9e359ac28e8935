package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// Algorithm names a supported digest
type Algorithm string

const (
	AlgorithmMD5    Algorithm = "md5"
	AlgorithmXXHash Algorithm = "xxhash"
)

// separator joins content components; it does not occur in file ids
const separator = "|"

// mediaOrder is the fixed precedence of media kinds after text and caption
var mediaOrder = []domain.MediaKind{
	domain.MediaPhoto,
	domain.MediaVideo,
	domain.MediaDocument,
	domain.MediaAudio,
	domain.MediaVoice,
	domain.MediaSticker,
}

// Extractor derives canonical fingerprints from message content
type Extractor struct {
	algorithm Algorithm
}

// NewExtractor creates an extractor for the given algorithm
func NewExtractor(algorithm string) (*Extractor, error) {
	switch Algorithm(algorithm) {
	case AlgorithmMD5, "":
		return &Extractor{algorithm: AlgorithmMD5}, nil
	case AlgorithmXXHash:
		return &Extractor{algorithm: AlgorithmXXHash}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
}

// Algorithm returns the digest used by the extractor
func (e *Extractor) Algorithm() Algorithm {
	return e.algorithm
}

// Extract returns the fingerprint of msg, or false if it carries no
// identifying content.
func (e *Extractor) Extract(msg *domain.Message) (string, bool) {
	components := Components(msg)
	if !hasContent(components) {
		return "", false
	}
	return e.digest(strings.Join(components, separator)), true
}

func hasContent(components []string) bool {
	for _, c := range components {
		if c != "" {
			return true
		}
	}
	return false
}

// Components returns the normalized content components of msg in precedence
// order. Text and caption are kept when present even if they normalize to
// empty, so "  " plus photo X joins as "|X" like existing snapshots.
func Components(msg *domain.Message) []string {
	var components []string

	if msg.Text != "" {
		components = append(components, normalize(msg.Text))
	}
	if msg.Caption != "" {
		components = append(components, normalize(msg.Caption))
	}

	for _, kind := range mediaOrder {
		refs := msg.MediaOfKind(kind)
		if len(refs) == 0 {
			continue
		}
		// Photo sizes arrive smallest first
		ref := refs[0]
		if kind == domain.MediaPhoto {
			ref = refs[len(refs)-1]
		}
		if ref.ContentID != "" {
			components = append(components, ref.ContentID)
		}
	}

	return components
}

func (e *Extractor) digest(s string) string {
	if e.algorithm == AlgorithmXXHash {
		return fmt.Sprintf("%016x", xxhash.Sum64([]byte(s)))
	}
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
