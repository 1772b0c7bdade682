// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match resolves free-text place names to map-image cache keys.
// Upstream normalization diverges between the AI output and the cache-key
// generator (punctuation, word order, transliteration), so resolution runs
// in two stages: a normalized prefix match, then a looser all-tokens
// substring match. Both stages are deterministic over the given key order.
package match

import (
	"strings"
	"unicode"
)

// Resolve returns the first cache key matching place, and whether one was
// found. Keys are tried in the order given; callers that need reproducible
// results across runs should pass keys in a stable order.
func Resolve(place string, keys []string) (string, bool) {
	if prefix := Normalize(place); prefix != "" {
		for _, k := range keys {
			if strings.HasPrefix(normalizeKey(k), prefix) {
				return k, true
			}
		}
	}

	toks := tokens(place)
	if len(toks) == 0 {
		return "", false
	}
	for _, k := range keys {
		if containsAll(normalizeKey(k), toks) {
			return k, true
		}
	}
	return "", false
}

// Normalize maps a place name onto the cache-key convention: trimmed,
// lowercased, internal whitespace collapsed, spaces replaced by the
// underscore separator.
func Normalize(place string) string {
	fields := strings.Fields(strings.ToLower(place))
	return strings.Join(fields, "_")
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// tokens splits a place name into its lowercase alphanumeric runs.
func tokens(place string) []string {
	return strings.FieldsFunc(strings.ToLower(place), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAll(key string, toks []string) bool {
	for _, t := range toks {
		if !strings.Contains(key, t) {
			return false
		}
	}
	return true
}
