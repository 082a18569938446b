package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey(FolderVideos, "mp4")
	if !strings.HasPrefix(key, "videos/") {
		t.Fatalf("expected videos/ prefix, got %q", key)
	}
	if !strings.HasSuffix(key, ".mp4") {
		t.Fatalf("expected .mp4 suffix, got %q", key)
	}

	other := ObjectKey(FolderVideos, "mp4")
	if key == other {
		t.Fatal("expected unique keys per issuance")
	}

	// Leading dot and case are normalized.
	key = ObjectKey(FolderThumbnails, ".PNG")
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("expected .png suffix, got %q", key)
	}
}

func TestUnconfiguredGateway(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3(ctx, S3Config{Region: "us-east-1"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	if s.Configured() {
		t.Fatal("gateway should not be configured without bucket and credentials")
	}

	if _, err := s.PresignUpload(ctx, "videos/x.mp4", "video/mp4"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("PresignUpload: expected ErrNotConfigured, got %v", err)
	}
	if _, err := s.PresignDownload(ctx, "videos/x.mp4", 0); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("PresignDownload: expected ErrNotConfigured, got %v", err)
	}
	if err := s.DeleteObject(ctx, "videos/x.mp4"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("DeleteObject: expected ErrNotConfigured, got %v", err)
	}
}

func TestValidateThumbnailType(t *testing.T) {
	cases := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/PNG", true},
		{"image/webp", true},
		{"video/mp4", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidateThumbnailType(tc.contentType); got != tc.want {
			t.Errorf("ValidateThumbnailType(%q) = %v, want %v", tc.contentType, got, tc.want)
		}
	}
}
