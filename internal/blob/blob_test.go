package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_UploadDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStore(dir, "http://localhost:8080/files/")

	res, err := s.Upload(ctx, "payment-proofs", "events/e1/proof.pdf", strings.NewReader("%PDF"), "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.URL != "http://localhost:8080/files/payment-proofs/events/e1/proof.pdf" {
		t.Errorf("URL = %q", res.URL)
	}
	data, err := os.ReadFile(filepath.Join(dir, "payment-proofs", "events", "e1", "proof.pdf"))
	if err != nil || string(data) != "%PDF" {
		t.Fatalf("stored file = %q, %v", data, err)
	}

	if err := s.Delete(ctx, res.URL); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "payment-proofs", "events", "e1", "proof.pdf")); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if err := s.Delete(ctx, res.URL); err != nil {
		t.Errorf("deleting a missing object should succeed, got %v", err)
	}
}

func TestLocalStore_Rejects(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir(), "/files")

	if _, err := s.Upload(ctx, "../etc", "x", strings.NewReader(""), ""); err == nil {
		t.Error("bucket traversal must fail")
	}
	if _, err := s.Upload(ctx, "b", "", strings.NewReader(""), ""); err == nil {
		t.Error("empty object path must fail")
	}
	if err := s.Delete(ctx, "https://elsewhere.example/b/x"); !errors.Is(err, ErrForeignURL) {
		t.Errorf("foreign url err = %v", err)
	}

	res, err := s.Upload(ctx, "b", "../../escape.txt", strings.NewReader("x"), "")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.URL != "/files/b/escape.txt" {
		t.Errorf("cleaned URL = %q", res.URL)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Upload(cancelled, "b", "late.txt", strings.NewReader("x"), ""); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled upload err = %v", err)
	}
}

func TestObjectName(t *testing.T) {
	a := ObjectName("events/e1", "Comprovante.PDF")
	b := ObjectName("events/e1", "Comprovante.PDF")
	if a == b {
		t.Error("object names must be unique")
	}
	if !strings.HasPrefix(a, "events/e1/") || !strings.HasSuffix(a, ".pdf") {
		t.Errorf("ObjectName() = %q", a)
	}
	if n := ObjectName("", "x"); strings.Contains(n, "/") {
		t.Errorf("ObjectName without prefix = %q", n)
	}
}

func TestPublicURLRoundTrip(t *testing.T) {
	u := PublicURL("unk-media", "events/e1/a.pdf")
	if u != "https://storage.googleapis.com/unk-media/events/e1/a.pdf" {
		t.Errorf("PublicURL() = %q", u)
	}
	bucket, name, err := ParsePublicURL(u)
	if err != nil || bucket != "unk-media" || name != "events/e1/a.pdf" {
		t.Errorf("ParsePublicURL() = %q, %q, %v", bucket, name, err)
	}
	if _, _, err := ParsePublicURL("https://storage.googleapis.com/only-bucket"); !errors.Is(err, ErrForeignURL) {
		t.Errorf("bucket only err = %v", err)
	}
}
