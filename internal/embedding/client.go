// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/cache"
	"github.com/fdnix/fdnix-catalog/internal/httpx"
	"github.com/fdnix/fdnix-catalog/internal/logging"
)

// Request is one (record_id, text) pair to embed.
type Request struct {
	RecordID    string
	Text        string
	ContentHash uint64
}

// Result is a (record_id, vector) pair; Vector is nil if the call failed
// after retries (spec.md §4.5 "Contract": "missing entries indicate
// failures after retries").
type Result struct {
	RecordID string
	Vector   []float32
}

// Embedder embeds a batch of texts, preserving input order in the output.
type Embedder interface {
	Embed(ctx context.Context, reqs []Request) ([]Result, error)
}

// Config configures a Client.
type Config struct {
	Host               string
	Model              string
	OutputDimensionality int
	TaskType           string

	MaxRPM          int
	MaxTPM          int
	MaxConcurrency  int
	RequestTimeout  time.Duration
}

// Resolve applies spec.md §4.5/§5 defaults.
func (c Config) Resolve() Config {
	if c.MaxRPM <= 0 {
		c.MaxRPM = 600
	}
	if c.MaxTPM <= 0 {
		c.MaxTPM = 300000
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 10
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.TaskType == "" {
		c.TaskType = "SEMANTIC_SIMILARITY"
	}
	return c
}

// Client is the default per-request Embedder (spec.md §6 "Embedding
// service (consumed)", profile (a)). It wraps a httpx.BasicClient the way
// CachedClient/RateLimitedClient wrap BasicClient: a thin decorator adding
// the User-Agent header, leaving transport and retries to this type.
type Client struct {
	cfg     Config
	http    httpx.BasicClient
	limiter *RateLimiter
	sem     chan struct{}
	log     *logging.Logger
	reuse   cache.Cache // content_hash -> []float32

	mu            sync.Mutex
	throttleStreak int
}

// NewClient returns a Client. reuse may be nil to disable incremental
// reuse (spec.md §4.5 "Incremental reuse").
func NewClient(cfg Config, basic httpx.BasicClient, reuse cache.Cache, log *logging.Logger) *Client {
	cfg = cfg.Resolve()
	return &Client{
		cfg:     cfg,
		http:    &httpx.WithUserAgent{BasicClient: basic, UserAgent: "fdnix-catalog/embedding"},
		limiter: NewRateLimiter(cfg.MaxRPM, cfg.MaxTPM),
		sem:     make(chan struct{}, cfg.MaxConcurrency),
		log:     log,
		reuse:   reuse,
	}
}

var _ Embedder = (*Client)(nil)

// Embed implements Embedder. Cancellation semantics: if ctx is canceled,
// in-flight requests run to completion but no new requests are started
// (spec.md §4.5 "Cancellation").
func (c *Client) Embed(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		i, req := i, req
		results[i] = Result{RecordID: req.RecordID}

		if vec, ok := c.lookupReuse(req.ContentHash); ok {
			results[i].Vector = vec
			continue
		}
		if ctx.Err() != nil {
			break // caller canceled; don't start new requests
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case c.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-c.sem }()
			vec, err := c.embedOne(ctx, req)
			if err != nil {
				c.log.Warn("embedding failed after retries", logging.Fields{"record_id": req.RecordID, "error": err.Error()})
				return
			}
			results[i].Vector = vec
		}()
	}
	wg.Wait()
	return results, nil
}

func (c *Client) lookupReuse(contentHash uint64) ([]float32, bool) {
	if c.reuse == nil {
		return nil, false
	}
	v, err := c.reuse.Get(contentHash)
	if err != nil {
		return nil, false
	}
	vec, ok := v.([]float32)
	return vec, ok
}

const (
	maxAttempts    = 3
	baseBackoff    = time.Second
	throttleStreakLimit = 5
	throttleSleep  = 10 * time.Second
)

// embedOne acquires rate-limiter capacity and issues the HTTP call with up
// to maxAttempts retries, exponential backoff plus jitter, and a
// throttle-streak circuit breaker (spec.md §4.5 "Retry policy").
func (c *Client) embedOne(ctx context.Context, req Request) ([]float32, error) {
	cost := EstimateTokens(req.Text)
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx, cost); err != nil {
			return nil, err
		}
		vec, throttled, err := c.doRequest(ctx, req.Text)
		if err == nil {
			c.resetThrottleStreak()
			if c.reuse != nil {
				c.reuse.Set(req.ContentHash, func() (any, error) { return vec, nil })
			}
			return vec, nil
		}
		lastErr = err
		if throttled {
			if c.bumpThrottleStreak() {
				select {
				case <-time.After(throttleSleep):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
		if attempt == maxAttempts {
			break
		}
		delay := baseBackoff * time.Duration(1<<uint(attempt))
		jitter := time.Duration(rand.Float64() * 0.25 * float64(delay))
		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, errors.Wrap(lastErr, "embedding request exhausted retries")
}

func (c *Client) bumpThrottleStreak() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.throttleStreak++
	if c.throttleStreak >= throttleStreakLimit {
		c.throttleStreak = 0
		return true
	}
	return false
}

func (c *Client) resetThrottleStreak() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.throttleStreak = 0
}

type embedRequestBody struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	OutputDimensionality int    `json:"outputDimensionality,omitempty"`
	TaskType             string `json:"taskType,omitempty"`
}

type embedResponseBody struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// doRequest issues one POST <host>/models/<model>:embedContent call
// (spec.md §6 profile (a)), returning (vector, wasThrottled, error).
func (c *Client) doRequest(ctx context.Context, text string) ([]float32, bool, error) {
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RequestTimeout)
	defer cancel()

	var body embedRequestBody
	body.Content.Parts = append(body.Content.Parts, struct {
		Text string `json:"text"`
	}{Text: text})
	body.OutputDimensionality = c.cfg.OutputDimensionality
	body.TaskType = c.cfg.TaskType

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, false, errors.Wrap(err, "marshaling request")
	}
	url := fmt.Sprintf("%s/models/%s:embedContent", c.cfg.Host, c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, false, errors.Wrap(err, "building request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, false, errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, errors.Wrap(err, "reading response")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, errors.Errorf("embedding service throttled (429): %s", data)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, errors.Errorf("embedding service returned %s: %s", resp.Status, data)
	}
	var respBody embedResponseBody
	if err := json.Unmarshal(data, &respBody); err != nil {
		return nil, false, errors.Wrap(err, "parsing response")
	}
	return respBody.Embedding.Values, false, nil
}

// Probe issues a trivial call to verify the embedding service is
// reachable; spec.md §4.5 "fails fatally only if the model is unreachable
// on a probe call".
func (c *Client) Probe(ctx context.Context) error {
	_, _, err := c.doRequest(ctx, "probe")
	return err
}
