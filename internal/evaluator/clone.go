// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package evaluator

import (
	"context"
	"os"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/logging"
)

// CloneFunc clones a git repository; swappable for tests the way the
// evaluator's CommandExecutor is.
type CloneFunc func(context.Context, storage.Storer, billy.Filesystem, *git.CloneOptions) (*git.Repository, error)

// Clone performs a normal shallow clone.
var Clone CloneFunc = git.CloneContext

const (
	cloneTimeout  = 20 * time.Minute
	cloneRetries  = 3
	cloneBackoff  = 5 * time.Second
)

// AcquireSource shallow-clones branch from repoURL into a fresh temporary
// directory, retrying up to cloneRetries times with a fixed cloneBackoff on
// failure, and aborting outright on timeout (spec.md §4.1 "Source
// acquisition"). It returns the local checkout path.
func AcquireSource(ctx context.Context, log *logging.Logger, repoURL, branch string) (string, error) {
	dir, err := os.MkdirTemp("", "fdnix-catalog-source-*")
	if err != nil {
		return "", errors.Wrap(ErrCloneFailed, err.Error())
	}
	cloneCtx, cancel := context.WithTimeout(ctx, cloneTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= cloneRetries; attempt++ {
		fs := osfs.New(dir)
		store := filesystem.NewStorage(fs, nil)
		opts := &git.CloneOptions{
			URL:           repoURL,
			ReferenceName: plumbing.NewBranchReferenceName(branch),
			SingleBranch:  true,
			Depth:         1,
			Tags:          git.NoTags,
		}
		_, err := Clone(cloneCtx, store, fs, opts)
		if err == nil {
			return dir, nil
		}
		lastErr = err
		log.Warn("clone attempt failed", logging.Fields{"attempt": attempt, "error": err.Error()})
		if cloneCtx.Err() != nil {
			break
		}
		if err == transport.ErrAuthenticationRequired {
			break
		}
		select {
		case <-cloneCtx.Done():
			lastErr = cloneCtx.Err()
		case <-time.After(cloneBackoff):
		}
	}
	os.RemoveAll(dir)
	return "", errors.Wrapf(ErrCloneFailed, "after %d attempts: %v", cloneRetries, lastErr)
}
