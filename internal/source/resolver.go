// Package source resolves a user-supplied data source reference into a
// local database file path. Local paths pass through after a stat check;
// gs:// URIs are fetched into a temp file so the engine can open them by
// path. Either way the failure mode is a SourceError: no query runs
// until the user supplies a usable source.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/om2468/stats-insights/internal/duckdb"
)

const gcsPrefix = "gs://"

// Resolve turns ref into a local path. The returned cleanup removes any
// temp file Resolve created and is never nil.
func Resolve(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	if strings.HasPrefix(ref, gcsPrefix) {
		path, err := fetchGCS(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return path, func() { os.Remove(path) }, nil
	}

	info, err := os.Stat(ref)
	if err != nil {
		return "", noop, &duckdb.SourceError{Path: ref, Err: err}
	}
	if info.IsDir() {
		return "", noop, &duckdb.SourceError{Path: ref, Err: fmt.Errorf("is a directory")}
	}
	return ref, noop, nil
}

// SplitGCSURI splits "gs://bucket/object/path" into bucket and object.
func SplitGCSURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, gcsPrefix)
	bucket, object, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("SplitGCSURI: malformed URI %q", uri)
	}
	return bucket, object, nil
}

// fetchGCS downloads the object behind a gs:// URI to a temp .duckdb
// file and returns its path.
func fetchGCS(ctx context.Context, uri string) (string, error) {
	bucket, object, err := SplitGCSURI(uri)
	if err != nil {
		return "", &duckdb.SourceError{Path: uri, Err: err}
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", &duckdb.SourceError{Path: uri, Err: fmt.Errorf("create storage client: %w", err)}
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", &duckdb.SourceError{Path: uri, Err: fmt.Errorf("open object reader: %w", err)}
	}
	defer r.Close()

	tmp, err := os.CreateTemp("", "stats-"+uuid.New().String()+"-*.duckdb")
	if err != nil {
		return "", &duckdb.SourceError{Path: uri, Err: fmt.Errorf("create temp file: %w", err)}
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", &duckdb.SourceError{Path: uri, Err: fmt.Errorf("download object: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", &duckdb.SourceError{Path: uri, Err: err}
	}
	return tmp.Name(), nil
}

// WriteTemp persists uploaded database bytes to a temp .duckdb file, for
// the API's upload endpoint. The caller owns removal of the returned path.
func WriteTemp(r io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "stats-upload-"+uuid.New().String()+"-*.duckdb")
	if err != nil {
		return "", fmt.Errorf("WriteTemp: create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("WriteTemp: persist upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("WriteTemp: close temp file: %w", err)
	}
	return tmp.Name(), nil
}
