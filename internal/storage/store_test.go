package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

func TestAllowedExtension(t *testing.T) {
	cases := []struct {
		filename string
		want     bool
	}{
		{"intro.mp4", true},
		{"INTRO.MP4", true},
		{"clip.webm", true},
		{"old.mov", true},
		{"archive.mkv", true},
		{"legacy.avi", true},
		{"notes.txt", false},
		{"video.mp4.exe", false},
		{"noext", false},
	}
	for _, tc := range cases {
		if got := AllowedExtension(tc.filename); got != tc.want {
			t.Fatalf("AllowedExtension(%q): want=%v got=%v", tc.filename, tc.want, got)
		}
	}
}

func TestUploadFilename(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

	got := UploadFilename("my video (final).mp4", now)
	want := "20260315_093000_my_video__final_.mp4"
	if got != want {
		t.Fatalf("UploadFilename: want=%q got=%q", want, got)
	}

	// Path components are stripped before sanitizing.
	got = UploadFilename("../../etc/passwd", now)
	if strings.Contains(got, "/") || strings.Contains(got, "..") {
		t.Fatalf("traversal survived sanitizing: %q", got)
	}

	got = UploadFilename("", now)
	if !strings.HasSuffix(got, "_upload") {
		t.Fatalf("empty name fallback: got=%q", got)
	}
}

func TestLocalStoreRoundtrip(t *testing.T) {
	store, err := newLocalStore(logger.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("newLocalStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "clip.mp4", strings.NewReader("fake video bytes")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rd, err := store.Open(ctx, "clip.mp4")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rd)
	rd.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "fake video bytes" {
		t.Fatalf("roundtrip: want=%q got=%q", "fake video bytes", string(data))
	}

	if err := store.Delete(ctx, "clip.mp4"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, "clip.mp4"); err == nil {
		t.Fatal("Open after Delete should fail")
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := newLocalStore(logger.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("newLocalStore: %v", err)
	}
	// Base() strips the directory part, so the write lands inside the
	// media dir rather than escaping it.
	if err := store.Save(context.Background(), "../escape.mp4", strings.NewReader("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rd, err := store.Open(context.Background(), "escape.mp4")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rd.Close()
}
