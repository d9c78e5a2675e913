package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrObjectExists is returned when an archive object is written twice.
var ErrObjectExists = errors.New("archive object already exists")

// GCSClient stores archived documents. Objects are written once and never
// overwritten; readers get time-limited signed URLs.
type GCSClient struct {
	client     *storage.Client
	bucketName string
}

type UploadResult struct {
	ObjectName string `json:"objectName"`
	Generation int64  `json:"generation"`
	Size       int64  `json:"size"`
}

func NewGCSClient(ctx context.Context, bucketName, projectID, credentialsPath string) (*GCSClient, error) {
	opts := []option.ClientOption{}
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	if projectID != "" {
		opts = append(opts, option.WithQuotaProject(projectID))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// UploadFile writes reader to objectName, failing with ErrObjectExists if the
// object is already there.
func (g *GCSClient) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	obj := g.client.Bucket(g.bucketName).Object(objectName).If(storage.Conditions{DoesNotExist: true})
	writer := obj.NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "private, max-age=0"
	writer.Metadata = map[string]string{"archived-at": time.Now().UTC().Format(time.RFC3339)}

	size, err := io.Copy(writer, reader)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to copy archive to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return nil, fmt.Errorf("%s: %w", objectName, ErrObjectExists)
		}
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	attrs := writer.Attrs()
	return &UploadResult{
		ObjectName: objectName,
		Generation: attrs.Generation,
		Size:       size,
	}, nil
}

// GetSignedURL returns a V4 GET URL for objectName valid for expiry.
func (g *GCSClient) GetSignedURL(objectName string, expiry time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
	}

	url, err := g.client.Bucket(g.bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for %s: %w", objectName, err)
	}
	return url, nil
}

func (g *GCSClient) Close() error {
	return g.client.Close()
}

var unsafeObjectChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArchiveObjectName is where the accepted PDF of a document is stored.
func ArchiveObjectName(documentID, number string, at time.Time) string {
	name := unsafeObjectChars.ReplaceAllString(number, "_")
	return fmt.Sprintf("documents/%s/%d_%s.pdf", documentID, at.Unix(), name)
}
