// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeS3 serves path-style object requests for a single bucket from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.objects[key] = b
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		b, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		w.Write(b)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(Config{Endpoint: srv.URL, AccessKey: "key", SecretKey: "secret", Bucket: "resources"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fake
}

func TestNew_Disabled(t *testing.T) {
	c, err := New(Config{})
	if err != nil || c != nil {
		t.Fatalf("New(empty) = %v, %v; want nil, nil", c, err)
	}
	if _, err := New(Config{Endpoint: "http://s3.local", Bucket: "b"}); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestPutGetDelete(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	if err := c.Put(ctx, "resources/guia.pdf", "application/pdf", []byte("%PDF-1.4")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := string(fake.objects["resources/resources/guia.pdf"]); got != "%PDF-1.4" {
		t.Errorf("stored body = %q", got)
	}

	data, err := c.Get(ctx, "resources/guia.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("Get = %q", data)
	}

	if err := c.Delete(ctx, "resources/guia.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "resources/guia.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}
