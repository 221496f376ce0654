package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rockspotter/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testStorageConfig() *config.Config {
	var cfg config.Config
	cfg.S3.Endpoint = "http://localhost:9000"
	cfg.S3.Region = "auto"
	cfg.S3.Bucket = "rock-photos"
	cfg.S3.AccessKeyID = "minio"
	cfg.S3.SecretAccessKey = "minio-secret"
	return &cfg
}

func TestPresignUpload(t *testing.T) {
	storage, err := NewPhotoStorage(context.Background(), testStorageConfig())
	if err != nil {
		t.Fatalf("NewPhotoStorage failed: %v", err)
	}
	user := primitive.NewObjectID()

	target, err := storage.PresignUpload(context.Background(), user, "image/jpeg")
	if err != nil {
		t.Fatalf("PresignUpload failed: %v", err)
	}
	if !strings.HasPrefix(target.Key, "rocks/"+user.Hex()+"/") || !strings.HasSuffix(target.Key, ".jpg") {
		t.Errorf("Unexpected key %s", target.Key)
	}
	if !strings.HasPrefix(target.UploadURL, "http://localhost:9000/rock-photos/"+target.Key) {
		t.Errorf("Expected path-style upload URL, got %s", target.UploadURL)
	}
	if !strings.Contains(target.UploadURL, "X-Amz-Signature=") {
		t.Errorf("Expected signed URL, got %s", target.UploadURL)
	}
	if target.PhotoURL != "http://localhost:9000/rock-photos/"+target.Key {
		t.Errorf("Unexpected photo URL %s", target.PhotoURL)
	}
}

func TestPresignUploadRejectsUnknownType(t *testing.T) {
	storage, err := NewPhotoStorage(context.Background(), testStorageConfig())
	if err != nil {
		t.Fatalf("NewPhotoStorage failed: %v", err)
	}
	if _, err := storage.PresignUpload(context.Background(), primitive.NewObjectID(), "application/pdf"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}
