package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rockspotter/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const uploadURLExpiry = 15 * time.Minute

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
}

// UploadTarget tells the client where to PUT a photo and the URL to store on the rock
type UploadTarget struct {
	UploadURL string    `json:"uploadUrl"`
	Method    string    `json:"method"`
	PhotoURL  string    `json:"photoUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PhotoStorage hands out presigned upload URLs for rock photos on any
// S3-compatible bucket (AWS, R2, MinIO).
type PhotoStorage struct {
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

var photoStorage *PhotoStorage

// InitPhotoStorage configures the bucket. Without a bucket, uploads are disabled.
func InitPhotoStorage(cfg *config.Config) error {
	if cfg.S3.Bucket == "" {
		return nil
	}
	storage, err := NewPhotoStorage(context.Background(), cfg)
	if err != nil {
		return err
	}
	photoStorage = storage
	return nil
}

func GetPhotoStorage() *PhotoStorage {
	return photoStorage
}

func NewPhotoStorage(ctx context.Context, cfg *config.Config) (*PhotoStorage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3.Region)}
	if cfg.S3.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "",
		)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimSuffix(cfg.S3.PublicURL, "/")
	if publicURL == "" {
		if cfg.S3.Endpoint != "" {
			publicURL = strings.TrimSuffix(cfg.S3.Endpoint, "/") + "/" + cfg.S3.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3.Bucket, cfg.S3.Region)
		}
	}

	return &PhotoStorage{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3.Bucket,
		publicURL: publicURL,
	}, nil
}

// PresignUpload returns a short-lived PUT URL for a new photo owned by userID
func (p *PhotoStorage) PresignUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadTarget, error) {
	ext, ok := photoExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, invalid("unsupported photo type %q", contentType)
	}
	key := photoKey(userID, ext)

	req, err := p.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &UploadTarget{
		UploadURL: req.URL,
		Method:    req.Method,
		PhotoURL:  p.publicURL + "/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(uploadURLExpiry),
	}, nil
}

func photoKey(userID primitive.ObjectID, ext string) string {
	return fmt.Sprintf("rocks/%s/%s.%s", userID.Hex(), uuid.NewString(), ext)
}
