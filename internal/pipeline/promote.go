// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/objectstore"
)

// latestPointerName is the well-known object every consumer polls to
// discover the current artifact generation (spec.md §4.2 "Promotion").
const latestPointerName = "latest.json"

// latestPointer is the contents of latest.json: the timestamp directory
// under <processed>/ holding the most recently promoted artifact set.
type latestPointer struct {
	Timestamp int64 `json:"timestamp"`
}

// Promote makes a just-written artifact generation (identified by its
// unix-timestamp prefix) the one consumers read, by writing latest.json
// last, after every artifact under that prefix has already landed (spec.md
// §4.2: readers must never observe a timestamp directory before its
// contents are complete). This is a last-writer-wins pointer swap, not a
// cross-object transaction: object stores here offer no multi-key atomic
// commit, so ordering (data first, pointer last) is what gives readers a
// consistent view.
func Promote(ctx context.Context, store objectstore.Store, cfg RunConfiguration, now int64) error {
	plain, err := json.Marshal(latestPointer{Timestamp: now})
	if err != nil {
		return errors.Wrap(err, "marshaling latest pointer")
	}
	data, err := objectstore.CompressJSON(plain)
	if err != nil {
		return errors.Wrap(err, "compressing latest pointer")
	}
	key := fmt.Sprintf("%s/%s", cfg.ProcessedPrefix, latestPointerName)
	if err := store.PutBlob(ctx, key, data, objectstore.BlobMeta{ContentType: "application/json", ContentEncoding: "br"}); err != nil {
		return errors.Wrap(err, "writing latest pointer")
	}
	return nil
}
