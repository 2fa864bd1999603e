// Package usi resolves the id("...") cross references of a TDM document.
//
// TDM elements point at each other through text nodes holding reference lists:
//
//	<channels>id("usi3") id("usi4") id("usi5")</channels>
//
// Refs extracts the identifiers in source order; that order defines the
// positional index of channel groups and channels. Index maps each identifier to
// its element once, so resolution is a hash lookup instead of a tree scan.
package usi

import "strings"

const (
	refPrefix = `id("`
	refSuffix = `")`
)

// Refs returns the identifiers of every id("X") token in text, in source order.
//
// Blank or absent text yields an empty slice. An unterminated token ends the scan.
func Refs(text string) []string {
	var ids []string
	for {
		start := strings.Index(text, refPrefix)
		if start < 0 {
			return ids
		}
		text = text[start+len(refPrefix):]

		// identifiers are non-empty, so the closing quote is searched from the second byte
		if len(text) == 0 {
			return ids
		}
		end := strings.Index(text[1:], refSuffix)
		if end < 0 {
			return ids
		}
		end++

		ids = append(ids, text[:end])
		text = text[end+len(refSuffix):]
	}
}

// First returns the first identifier in text and whether one was found.
func First(text string) (string, bool) {
	ids := Refs(text)
	if len(ids) == 0 {
		return "", false
	}

	return ids[0], true
}
