// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package embedding calls a remote text-embedding service with a
// sliding-window rate limiter, bounded concurrency, retry with backoff, and
// content-hash-keyed incremental reuse (spec.md §4.5, C5).
package embedding

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const slidingWindow = 60 * time.Second

// tokenEntry is one admitted request's token cost, timestamped for
// sliding-window expiry.
type tokenEntry struct {
	at   time.Time
	cost int
}

// RateLimiter enforces two sliding 60-second windows: request count and
// token sum. The windows are deques of timestamps (and, for tokens,
// timestamp/cost pairs); a single mutex protects both, released across
// sleeps so other waiters' accounting isn't blocked. No minimum gap
// between admissions is enforced: up to max_rpm requests are admitted at
// once, and once the request-count window is full the next admission
// waits until the oldest entry ages out of the trailing 60s. Requests
// admitted together age out together, so a saturated window releases the
// next group as a burst rather than at a steady 60/max_rpm cadence.
//
// golang.org/x/time/rate (used elsewhere in this module for smoothing
// object-store upload fan-out, where continuous refill is exactly what's
// wanted) was evaluated as a replacement for this type's request-count
// window and rejected: it refills continuously at maxRPM/60s, so once its
// burst is spent a blocked caller is admitted as soon as a fraction of a
// token has accrued, not when the specific request that fills the window
// ages out of the trailing 60s — a materially different admission curve
// from the discrete sliding log this type implements.
type RateLimiter struct {
	mu sync.Mutex

	maxRPM, maxTPM int

	requests *list.List // of time.Time
	tokens   *list.List // of tokenEntry
}

// NewRateLimiter returns a RateLimiter enforcing maxRPM requests and maxTPM
// tokens per trailing 60s window.
func NewRateLimiter(maxRPM, maxTPM int) *RateLimiter {
	if maxRPM <= 0 {
		maxRPM = 600
	}
	if maxTPM <= 0 {
		maxTPM = 300000
	}
	return &RateLimiter{
		maxRPM:   maxRPM,
		maxTPM:   maxTPM,
		requests: list.New(),
		tokens:   list.New(),
	}
}

// EstimateTokens implements spec.md §4.5's estimator:
// max(chars/4, word_count).
func EstimateTokens(text string) int {
	chars := len(text)
	words := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	charEstimate := chars / 4
	if charEstimate > words {
		return charEstimate
	}
	return words
}

// Acquire blocks until the caller may spend cost tokens on one request,
// honoring both sliding windows. It returns early with ctx.Err() if ctx is
// canceled while waiting.
func (r *RateLimiter) Acquire(ctx context.Context, cost int) error {
	for {
		r.mu.Lock()
		now := time.Now()
		r.evict(now)

		wait := r.waitFor(now, cost)
		if wait <= 0 {
			r.requests.PushBack(now)
			r.tokens.PushBack(tokenEntry{at: now, cost: cost})
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// evict drops window entries older than slidingWindow. Caller holds mu.
func (r *RateLimiter) evict(now time.Time) {
	for e := r.requests.Front(); e != nil; {
		next := e.Next()
		if now.Sub(e.Value.(time.Time)) > slidingWindow {
			r.requests.Remove(e)
		}
		e = next
	}
	for e := r.tokens.Front(); e != nil; {
		next := e.Next()
		if now.Sub(e.Value.(tokenEntry).at) > slidingWindow {
			r.tokens.Remove(e)
		}
		e = next
	}
}

// waitFor computes how long the caller must sleep before cost tokens fit
// within both windows. Caller holds mu.
func (r *RateLimiter) waitFor(now time.Time, cost int) time.Duration {
	var wait time.Duration

	if r.requests.Len() >= r.maxRPM {
		oldest := r.requests.Front().Value.(time.Time)
		if until := slidingWindow - now.Sub(oldest); until > wait {
			wait = until
		}
	}
	tokenSum := cost
	for e := r.tokens.Front(); e != nil; e = e.Next() {
		tokenSum += e.Value.(tokenEntry).cost
	}
	if tokenSum > r.maxTPM && r.tokens.Len() > 0 {
		oldest := r.tokens.Front().Value.(tokenEntry).at
		if until := slidingWindow - now.Sub(oldest); until > wait {
			wait = until
		}
	}
	return wait
}
