// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns titles and file names into ASCII-only identifiers.
// Accented Latin letters are folded to their base letter so Spanish names
// stay readable ("Guía Fiscal" becomes "guia-fiscal").
package slug

import (
	"path"
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// spaces matches runs of whitespace.
	spaces = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// extension is a plausible file extension.
	extension = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

	folder = strings.NewReplacer(
		"á", "a", "à", "a", "ä", "a", "â", "a", "ã", "a",
		"é", "e", "è", "e", "ë", "e", "ê", "e",
		"í", "i", "ì", "i", "ï", "i", "î", "i",
		"ó", "o", "ò", "o", "ö", "o", "ô", "o", "õ", "o",
		"ú", "u", "ù", "u", "ü", "u", "û", "u",
		"ñ", "n", "ç", "c",
	)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Contabilidad Básica 2026" → "contabilidad-basica-2026"
func Generate(s string) string {
	result := folder.Replace(strings.ToLower(strings.TrimSpace(s)))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = spaces.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Filename slugs the base of a file name and keeps its extension. An empty
// result falls back to "download".
// Example: "Guía Fiscal 2026.PDF" → "guia-fiscal-2026.pdf"
func Filename(name string) string {
	name = strings.TrimSpace(name)
	ext := strings.ToLower(path.Ext(name))
	if !extension.MatchString(ext) {
		ext = ""
	}
	base := Generate(strings.TrimSuffix(name, name[len(name)-len(ext):]))
	if base == "" {
		base = "download"
	}
	return base + ext
}
