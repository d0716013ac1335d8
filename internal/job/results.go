package job

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"metapipe/internal/apperrors"
	"metapipe/internal/gateway"
)

// Result categories in classification priority order. A file matching two
// rules is classified by the first, not by storage listing order.
const (
	CategoryMultiQC = "multiqc_report"
	CategoryContigs = "contigs"
	CategoryPfam    = "pfam_annotations"
	CategoryBins    = "bins"
	CategoryCheckM  = "checkm_report"
)

// inputSuffixes are the object suffixes accepted as pipeline inputs.
var inputSuffixes = []string{".fastq.gz", ".fq.gz", ".fastq", ".fq"}

// ResultCatalog enumerates and classifies a completed job's result objects.
// Nothing is stored; every call re-lists the prefix and re-signs the URLs.
type ResultCatalog struct {
	storage gateway.Storage
	expiry  time.Duration
	logger  *slog.Logger
}

// NewResultCatalog creates a catalog generating URLs with the given expiry.
func NewResultCatalog(storage gateway.Storage, expiry time.Duration) *ResultCatalog {
	return &ResultCatalog{
		storage: storage,
		expiry:  expiry,
		logger:  slog.With("component", "results"),
	}
}

// Collect lists results/<jobID>/ and returns classified artifacts with
// time-limited access URLs, in listing order.
func (c *ResultCatalog) Collect(ctx context.Context, jobID string) ([]Artifact, error) {
	prefix := fmt.Sprintf("results/%s/", jobID)
	keys, err := c.storage.List(ctx, prefix)
	if err != nil {
		return nil, apperrors.Tracking("storage.list", err)
	}

	artifacts := make([]Artifact, 0, len(keys))
	for _, key := range keys {
		url, err := c.storage.SignedURL(key, c.expiry)
		if err != nil {
			c.logger.Warn("Signing result URL failed", "jobId", jobID, "object", key, "error", err)
			continue
		}
		artifacts = append(artifacts, Artifact{
			Category: Categorize(path.Base(key)),
			Object:   key,
			URL:      url,
		})
	}
	return artifacts, nil
}

// ListInputs returns the sequence files available under inputs/.
func (c *ResultCatalog) ListInputs(ctx context.Context) ([]string, error) {
	keys, err := c.storage.List(ctx, "inputs/")
	if err != nil {
		return nil, apperrors.Tracking("storage.list", err)
	}

	inputs := make([]string, 0, len(keys))
	for _, key := range keys {
		if isSequenceFile(key) {
			inputs = append(inputs, key)
		}
	}
	return inputs, nil
}

// Categorize classifies a result filename. Rules are evaluated in a fixed
// priority order; the first match wins. Unmatched files keep their own
// filename as the category.
func Categorize(filename string) string {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "multiqc"):
		return CategoryMultiQC
	case strings.Contains(name, "contigs") && strings.HasSuffix(name, ".fa"):
		return CategoryContigs
	case strings.Contains(name, "pfam") || strings.Contains(name, "hmmscan"):
		return CategoryPfam
	case strings.Contains(name, "bins") || strings.Contains(name, "metabat"):
		return CategoryBins
	case strings.Contains(name, "checkm"):
		return CategoryCheckM
	default:
		return filename
	}
}

func isSequenceFile(key string) bool {
	for _, suffix := range inputSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}
