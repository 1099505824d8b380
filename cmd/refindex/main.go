// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

// Command refindex rebuilds the photo recognition reference index.
//
// It walks a directory of reference photos laid out as
//
//	<refs-dir>/<catalog_id>/<photo>.{jpg,jpeg,png,webp}
//
// computes the visual fingerprint for every photo, and atomically swaps
// the reference_images table for the fresh index. The API server
// picks the new index up on its next reload.
//
// Run it offline whenever reference photos are added or replaced:
//
//	DATABASE_URL=... refindex -refs ./data/refs
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/toniewert/toniewert/internal/catalog"
	pgstore "github.com/toniewert/toniewert/internal/platform/postgres"
	"github.com/toniewert/toniewert/internal/recognizer"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

func main() {
	refsDir := flag.String("refs", "./data/refs", "directory of reference photos, one subdirectory per catalog id")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With(slog.String("app", "toniewert-refindex"))
	slog.SetDefault(log)

	// The indexer only talks to PostgreSQL, so it reads DATABASE_URL
	// directly instead of requiring the full server configuration.
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Error("startup failure", slog.String("context", "DATABASE_URL is not set"))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, databaseURL, log)
	must(log, err, "connect to postgres")
	defer pool.Close()

	// Known catalog ids, so typo'd directory names are caught before indexing.
	catalogRepository := catalog.NewPostgresRepository(pool)
	entities, err := catalogRepository.ListAll(ctx)
	must(log, err, "load catalog")

	knownIDs := make(map[string]struct{}, len(entities))
	for _, entity := range entities {
		knownIDs[entity.ID] = struct{}{}
	}

	references, err := collectReferences(*refsDir, knownIDs, log)
	must(log, err, "scan reference photos")

	if len(references) == 0 {
		log.Error("no reference photos found", slog.String("refs_dir", *refsDir))
		os.Exit(1)
	}

	repository := recognizer.NewPostgresRepository(pool)
	must(log, repository.ReplaceAll(ctx, references), "replace reference index")

	log.Info("reference_index_rebuilt",
		slog.Int("references", len(references)),
		slog.String("refs_dir", *refsDir),
	)
}

// collectReferences walks refsDir and fingerprints every readable image.
// Unreadable or undecodable files are logged and skipped so one corrupt
// photo does not abort a full rebuild.
func collectReferences(refsDir string, knownIDs map[string]struct{}, log *slog.Logger) ([]recognizer.Reference, error) {
	var references []recognizer.Reference
	now := time.Now().UTC()

	err := filepath.WalkDir(refsDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		// The photo's catalog id is its parent directory name.
		catalogID := filepath.Base(filepath.Dir(path))
		if _, ok := knownIDs[catalogID]; !ok {
			log.Warn("skipping photo for unknown catalog id",
				slog.String("catalog_id", catalogID),
				slog.String("path", path),
			)
			return nil
		}

		payload, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable photo", slog.String("path", path), slog.Any("error", err))
			return nil
		}

		descriptor, err := recognizer.DescriptorFromBytes(payload)
		if err != nil {
			log.Warn("skipping undecodable photo", slog.String("path", path), slog.Any("error", err))
			return nil
		}

		references = append(references, recognizer.Reference{
			CatalogID: catalogID,
			Path:      filepath.ToSlash(path),
			DHash:     descriptor.DHashHex,
			MeanRGB:   descriptor.MeanRGB,
			IndexedAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", refsDir, err)
	}

	return references, nil
}

func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
