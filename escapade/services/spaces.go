package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// SpacesService stores photo memories in a DigitalOcean Spaces bucket.
type SpacesService struct {
	client    *s3.Client
	bucket    string
	region    string
	PhotoRoot string
}

func NewSpacesService(spacesKey, spacesSecret, region, bucket, photoRoot string) (*SpacesService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load Spaces config: %w", err)
	}

	return &SpacesService{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		PhotoRoot: strings.TrimPrefix(photoRoot, "/"),
	}, nil
}

// PhotoKey builds the object key for a stop photo.
func (s *SpacesService) PhotoKey(userID, adventureID, photoID string) string {
	return fmt.Sprintf("%s/%s/%s/%s.jpg", s.PhotoRoot, userID, adventureID, photoID)
}

// UploadPhoto writes the image bytes and returns the stored key.
func (s *SpacesService) UploadPhoto(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		ACL:         "private",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo %s: %w", key, err)
	}

	return key, nil
}

// PhotoURL returns the public CDN URL for a stored key.
func (s *SpacesService) PhotoURL(key string) string {
	return fmt.Sprintf("https://%s.%s.cdn.digitaloceanspaces.com/%s", s.bucket, s.region, key)
}

func (s *SpacesService) DeletePhoto(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", key, err)
	}
	return nil
}
