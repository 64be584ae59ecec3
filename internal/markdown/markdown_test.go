// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	got, err := ToHTML("# Curso Fiscal\n\nAprende **impuestos** paso a paso.\n\n- IVA\n- ISR\n")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	for _, want := range []string{`<h1 id="curso-fiscal">`, "<strong>impuestos</strong>", "<li>IVA</li>"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestToHTML_EscapesRawHTML(t *testing.T) {
	got, err := ToHTML("hola <script>alert(1)</script>")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw script tag passed through: %s", got)
	}
}

func TestToHTML_Table(t *testing.T) {
	got, err := ToHTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if !strings.Contains(got, "<table>") {
		t.Errorf("GFM table not rendered: %s", got)
	}
}
