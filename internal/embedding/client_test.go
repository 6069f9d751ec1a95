// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package embedding

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fdnix/fdnix-catalog/internal/cache"
	"github.com/fdnix/fdnix-catalog/internal/logging"
)

// fakeBasicClient is a concurrency-safe httpx.BasicClient fake that
// delegates each call to a caller-supplied function.
type fakeBasicClient struct {
	mu       sync.Mutex
	calls    int32
	handler  func(req *http.Request) (*http.Response, error)
}

func (f *fakeBasicClient) Do(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.handler(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func testLogger() *logging.Logger { return logging.New("embedding-test") }

func TestClient_Embed_Success(t *testing.T) {
	fc := &fakeBasicClient{handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"embedding":{"values":[0.1,0.2,0.3]}}`), nil
	}}
	c := NewClient(Config{Host: "https://example.test", Model: "embed-1"}, fc, nil, testLogger())
	results, err := c.Embed(context.Background(), []Request{
		{RecordID: "hello-2.12", Text: "Package: hello."},
	})
	if err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}
	if len(results) != 1 || len(results[0].Vector) != 3 {
		t.Fatalf("Embed() = %+v, want one 3-dim vector", results)
	}
}

func TestClient_Embed_PreservesOrder(t *testing.T) {
	fc := &fakeBasicClient{handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"embedding":{"values":[1.0]}}`), nil
	}}
	c := NewClient(Config{Host: "https://example.test", Model: "embed-1", MaxConcurrency: 5}, fc, nil, testLogger())
	reqs := []Request{
		{RecordID: "a", Text: "a"}, {RecordID: "b", Text: "b"}, {RecordID: "c", Text: "c"},
	}
	results, err := c.Embed(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}
	for i, r := range results {
		if r.RecordID != reqs[i].RecordID {
			t.Errorf("results[%d].RecordID = %q, want %q (order not preserved)", i, r.RecordID, reqs[i].RecordID)
		}
	}
}

func TestClient_Embed_IncrementalReuse_SkipsRemoteCall(t *testing.T) {
	fc := &fakeBasicClient{handler: func(req *http.Request) (*http.Response, error) {
		t.Fatalf("remote call issued despite cache hit")
		return nil, nil
	}}
	reuse := &cache.CoalescingMemoryCache{}
	reuse.Set(uint64(42), func() (any, error) { return []float32{9, 9, 9}, nil })

	c := NewClient(Config{Host: "https://example.test", Model: "embed-1"}, fc, reuse, testLogger())
	results, err := c.Embed(context.Background(), []Request{
		{RecordID: "hello-2.12", Text: "Package: hello.", ContentHash: 42},
	})
	if err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}
	if len(results) != 1 || len(results[0].Vector) != 3 || results[0].Vector[0] != 9 {
		t.Fatalf("Embed() = %+v, want the cached vector", results)
	}
}

func TestClient_Embed_MissingEntryAfterRetriesExhausted(t *testing.T) {
	fc := &fakeBasicClient{handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(500, "internal error"), nil
	}}
	c := NewClient(Config{Host: "https://example.test", Model: "embed-1"}, fc, nil, testLogger())
	results, err := c.Embed(context.Background(), []Request{
		{RecordID: "hello-2.12", Text: "x"},
	})
	if err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}
	if results[0].Vector != nil {
		t.Errorf("Embed() vector = %v, want nil after retries exhausted", results[0].Vector)
	}
	if fc.calls != maxAttempts {
		t.Errorf("calls = %d, want %d (maxAttempts)", fc.calls, maxAttempts)
	}
}
