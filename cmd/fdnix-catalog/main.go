// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Command fdnix-catalog drives the batch pipeline that turns a nixpkgs
// checkout into the fdnix catalog artifacts: a raw evaluation pass
// (`evaluate`) and a normalize/merge/fan-out pass over its output
// (`process`). Each subcommand is a thin wrapper over internal/pipeline;
// all real logic lives there so it stays testable without a CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fdnix/fdnix-catalog/internal/logging"
	"github.com/fdnix/fdnix-catalog/internal/objectstore"
	"github.com/fdnix/fdnix-catalog/internal/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "fdnix-catalog",
	Short: "Batch pipeline that builds the fdnix nixpkgs catalog",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

type evaluateFlags struct {
	bucket        string
	nixpkgsRepo   string
	nixpkgsBranch string
	system        string
	sharded       bool
	artifacts     string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Clone nixpkgs and run the external evaluator, uploading the raw JSONL artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate(cmd.Context())
	},
}

var evalFlags evaluateFlags

func init() {
	rootCmd.AddCommand(evaluateCmd)

	f := evaluateCmd.Flags()
	f.StringVar(&evalFlags.bucket, "bucket", "", "gs:// URI the raw evaluation artifact is written to.")
	f.StringVar(&evalFlags.nixpkgsRepo, "nixpkgs-repo", "https://github.com/NixOS/nixpkgs", "Nixpkgs git remote to evaluate.")
	f.StringVar(&evalFlags.nixpkgsBranch, "nixpkgs-branch", "nixos-unstable", "Nixpkgs branch to check out.")
	f.StringVar(&evalFlags.system, "system", "x86_64-linux", "Target system tuple passed to the evaluator.")
	f.BoolVar(&evalFlags.sharded, "sharded", false, "Evaluate in attribute-path shards instead of one pass.")
	f.StringVar(&evalFlags.artifacts, "artifacts-prefix", "artifacts", "Key prefix raw evaluation output is stored under.")
	evaluateCmd.MarkFlagRequired("bucket")
}

func runEvaluate(ctx context.Context) error {
	logger := logging.New("evaluate")
	store, err := objectstore.NewGCSStore(ctx, evalFlags.bucket)
	if err != nil {
		return err
	}

	cfg := pipeline.RunConfiguration{
		NixpkgsRepoURL:  evalFlags.nixpkgsRepo,
		NixpkgsBranch:   evalFlags.nixpkgsBranch,
		System:          evalFlags.system,
		Sharded:         evalFlags.sharded,
		ArtifactsPrefix: evalFlags.artifacts,
	}.Resolve()

	result, err := pipeline.Stage1(ctx, cfg, store, time.Now().Unix(), logger)
	if err != nil {
		return err
	}
	fmt.Printf("evaluated %d packages, raw output at %s\n", result.TotalPackages, result.RawPath)
	return nil
}

type processFlags struct {
	bucket            string
	rawPath           string
	mode              string
	enableEmbeddings  bool
	enableNodeUpload  bool
	clearExistingNode bool
	nodeUploadRPS     float64
	embeddingHost     string
	embeddingModel    string
	workDir           string
	artifacts         string
	processed         string
	promote           bool
}

var procFlags processFlags

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Normalize, merge, and fan a combined raw JSONL file out to the catalog artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	f := processCmd.Flags()
	f.StringVar(&procFlags.bucket, "bucket", "", "gs:// URI the artifact store is rooted at.")
	f.StringVar(&procFlags.rawPath, "raw-path", "", "Local path to a combined raw JSONL file (output of 'evaluate').")
	f.StringVar(&procFlags.mode, "mode", string(pipeline.ModeBoth), "Processing mode: metadata, embedding, minified, or both.")
	f.BoolVar(&procFlags.enableEmbeddings, "enable-embeddings", false, "Call the embedding service for packages without a cached vector.")
	f.BoolVar(&procFlags.enableNodeUpload, "enable-node-upload", false, "Upload one object per dependency-graph node.")
	f.BoolVar(&procFlags.clearExistingNode, "clear-existing-nodes", false, "Delete the node prefix before uploading this run's nodes.")
	f.Float64Var(&procFlags.nodeUploadRPS, "node-upload-rps", 0, "Cap node-object uploads per second across all workers; 0 disables the cap.")
	f.StringVar(&procFlags.embeddingHost, "embedding-host", "", "Base URL of the embedding service.")
	f.StringVar(&procFlags.embeddingModel, "embedding-model", "", "Embedding model identifier.")
	f.StringVar(&procFlags.workDir, "work-dir", "", "Local scratch directory for intermediate artifacts; defaults to a temp dir.")
	f.StringVar(&procFlags.artifacts, "artifacts-prefix", "artifacts", "Key prefix raw evaluation artifacts are read from.")
	f.StringVar(&procFlags.processed, "processed-prefix", "processed", "Key prefix processed artifacts are written to.")
	f.BoolVar(&procFlags.promote, "promote", true, "Update the latest.json pointer after a successful run.")
	processCmd.MarkFlagRequired("bucket")
	processCmd.MarkFlagRequired("raw-path")
}

func runProcess(ctx context.Context) error {
	logger := logging.New("process")
	store, err := objectstore.NewGCSStore(ctx, procFlags.bucket)
	if err != nil {
		return err
	}

	dir := procFlags.workDir
	if dir == "" {
		dir, err = os.MkdirTemp("", "fdnix-catalog-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
	}

	cfg := pipeline.RunConfiguration{
		ProcessingMode:     pipeline.ProcessingMode(procFlags.mode),
		EnableEmbeddings:   procFlags.enableEmbeddings,
		EnableNodeUpload:   procFlags.enableNodeUpload,
		ClearExistingNodes: procFlags.clearExistingNode,
		NodeUploadRPS:      procFlags.nodeUploadRPS,
		EmbeddingHost:      procFlags.embeddingHost,
		EmbeddingModelID:   procFlags.embeddingModel,
		ArtifactsPrefix:    procFlags.artifacts,
		ProcessedPrefix:    procFlags.processed,
	}.Resolve()

	now := time.Now().Unix()
	load, err := pipeline.Load(procFlags.rawPath, logger)
	if err != nil {
		return err
	}
	result, err := pipeline.Stage2(ctx, cfg, store, load, dir, now, logger)
	if err != nil {
		return err
	}
	if procFlags.promote {
		if err := pipeline.Promote(ctx, store, cfg, now); err != nil {
			return err
		}
	}
	fmt.Printf("processed %d packages (%d embeddings, %d nodes)\n",
		result.CatalogStats.PackagesWritten, result.EmbeddingCount, result.NodeStats.Uploaded)
	return nil
}
