package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

func TestDownloadIfMissing(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "data.bin")

	if err := DownloadIfMissing(context.Background(), srv.URL+"/data.bin", path, Options{}); err != nil {
		t.Fatalf("first download: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Fatalf("cached content = %q", got)
	}

	// Cache hit: no network traffic at all.
	if err := DownloadIfMissing(context.Background(), srv.URL+"/data.bin", path, Options{}); err != nil {
		t.Fatalf("cached download: %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("server saw %d requests, want 1", n)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "missing.bin")
	err := DownloadIfMissing(context.Background(), srv.URL+"/missing.bin", path, Options{})
	if !hferrors.IsCode(err, hferrors.CodeDownloadFailed) {
		t.Fatalf("expected download failure, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("failed download left a cache file behind")
	}
}

func TestNewSourceRejectsUnknownScheme(t *testing.T) {
	if _, err := NewSource("ftp://host/file", Options{}); !hferrors.IsCode(err, hferrors.CodeBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestS3SourceParsing(t *testing.T) {
	src, err := NewSource("s3://bucket/prefix/file.bin", Options{Region: "eu-west-1"})
	if err != nil {
		t.Fatal(err)
	}
	s, ok := src.(*s3Source)
	if !ok {
		t.Fatalf("got %T, want *s3Source", src)
	}
	if s.bucket != "bucket" || s.key != "prefix/file.bin" {
		t.Fatalf("parsed %s/%s", s.bucket, s.key)
	}

	if _, err := NewSource("s3://bucket", Options{}); err == nil {
		t.Fatal("s3 URL without key accepted")
	}
}
