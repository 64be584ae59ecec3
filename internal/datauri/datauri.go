// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package datauri encodes and decodes RFC 2397 data URIs of the form
// data:<mediatype>[;base64],<data>.
package datauri

import (
	"encoding/base64"
	"errors"
	"mime"
	"net/url"
	"strings"
)

// DefaultMediaType applies when a URI names none.
const DefaultMediaType = "text/plain;charset=US-ASCII"

// ErrInvalid is returned for strings that are not well-formed data URIs.
var ErrInvalid = errors.New("invalid data URI")

// DataURI is a decoded data URI.
type DataURI struct {
	MediaType string
	Data      []byte
}

// Parse decodes s. Both base64 and percent-encoded payloads are accepted.
func Parse(s string) (*DataURI, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, ErrInvalid
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalid
	}

	header, isBase64 := strings.CutSuffix(header, ";base64")
	mediaType := strings.TrimSpace(header)
	if mediaType == "" || strings.HasPrefix(mediaType, ";") {
		mediaType = "text/plain" + mediaType
		if !strings.Contains(mediaType, "charset=") {
			mediaType = DefaultMediaType
		}
	}
	if _, _, err := mime.ParseMediaType(mediaType); err != nil {
		return nil, ErrInvalid
	}

	var data []byte
	if isBase64 {
		var err error
		data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			if data, err = base64.RawStdEncoding.DecodeString(strings.TrimSpace(payload)); err != nil {
				return nil, ErrInvalid
			}
		}
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, ErrInvalid
		}
		data = []byte(unescaped)
	}
	return &DataURI{MediaType: mediaType, Data: data}, nil
}

// Encode returns a base64 data URI for data.
func Encode(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// String re-encodes d as a base64 data URI.
func (d *DataURI) String() string {
	return Encode(d.MediaType, d.Data)
}
