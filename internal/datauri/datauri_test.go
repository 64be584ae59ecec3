// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package datauri

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		mediaType string
		data      string
	}{
		{"pdf base64", "data:application/pdf;base64,JVBERi0xLjQK", "application/pdf", "%PDF-1.4\n"},
		{"unpadded base64", "data:text/plain;base64,aGk", "text/plain", "hi"},
		{"percent encoded", "data:text/plain,hola%20mundo", "text/plain", "hola mundo"},
		{"default media type", "data:,abc", DefaultMediaType, "abc"},
		{"charset only", "data:;charset=utf-8,abc", "text/plain;charset=utf-8", "abc"},
		{"params kept", "data:text/csv;charset=utf-8;base64,YSxi", "text/csv;charset=utf-8", "a,b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if d.MediaType != tt.mediaType {
				t.Errorf("MediaType = %q, want %q", d.MediaType, tt.mediaType)
			}
			if string(d.Data) != tt.data {
				t.Errorf("Data = %q, want %q", d.Data, tt.data)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"JVBERi0xLjQK",
		"data:application/pdf;base64",
		"data:application/pdf;base64,!!!notbase64",
		"http://example.com/file.pdf",
	} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalid", in, err)
		}
	}
}

func TestEncode(t *testing.T) {
	got := Encode("image/png", []byte{0x89, 'P', 'N', 'G'})
	if got != "data:image/png;base64,iVBORw==" {
		t.Errorf("Encode = %q", got)
	}
	if got := Encode("", []byte("x")); got != "data:application/octet-stream;base64,eA==" {
		t.Errorf("Encode with empty type = %q", got)
	}

	d, err := Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != got {
		t.Errorf("String() = %q, want %q", d.String(), got)
	}
}
