package media

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStoredNameKeepsExtension(t *testing.T) {
	a := StoredName("Photo.JPG")
	b := StoredName("Photo.JPG")
	if !strings.HasSuffix(a, ".jpg") {
		t.Fatalf("extension lost: %q", a)
	}
	if a == b {
		t.Fatal("names must be unique")
	}
}

func TestKindOf(t *testing.T) {
	cases := map[string]string{
		"image/png":       "image",
		"video/mp4":       "video",
		"application/pdf": "",
		"":                "",
	}
	for in, want := range cases {
		if got := KindOf(in); got != want {
			t.Errorf("KindOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNoopStoreRejects(t *testing.T) {
	_, err := NoopStore{}.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	if !errors.Is(err, ErrNoStorage) {
		t.Fatalf("expected ErrNoStorage, got %v", err)
	}
}
