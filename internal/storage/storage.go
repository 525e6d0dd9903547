package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage uploads bytes under a path and hands back a public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, objectPath string) (*Object, error)
}

type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

type gridFSStorage struct {
	bucket  *gridfs.Bucket
	baseURL string
}

// NewGridFS stores objects in a GridFS bucket. URLs are baseURL joined with
// the escaped object path; the HTTP layer serves them back through Open.
func NewGridFS(db *mongo.Database, bucketName, baseURL string) (ObjectStorage, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &gridFSStorage{bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *gridFSStorage) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	objectPath = CleanPath(objectPath)
	if objectPath == "" {
		return "", fmt.Errorf("upload object: empty path")
	}
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})

	stream, err := s.bucket.OpenUploadStream(objectPath, opts)
	if err != nil {
		return "", fmt.Errorf("open upload stream: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}
	if _, err := io.Copy(stream, r); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("close upload stream: %w", err)
	}
	return PublicURL(s.baseURL, objectPath), nil
}

// Open returns the latest revision stored under objectPath.
func (s *gridFSStorage) Open(ctx context.Context, objectPath string) (*Object, error) {
	objectPath = CleanPath(objectPath)
	cursor, err := s.bucket.FindContext(ctx, bson.M{"filename": objectPath},
		options.GridFSFind().SetSort(bson.D{{Key: "uploadDate", Value: -1}}).SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("find object: %w", err)
	}
	defer cursor.Close(ctx)

	var files []struct {
		ID       any    `bson:"_id"`
		Length   int64  `bson:"length"`
		Metadata bson.M `bson:"metadata"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrObjectNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(files[0].ID)
	if err != nil {
		return nil, fmt.Errorf("open download stream: %w", err)
	}
	contentType, _ := files[0].Metadata["contentType"].(string)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Object{ReadCloser: stream, ContentType: contentType, Size: files[0].Length}, nil
}

// CleanPath normalizes an object path and strips leading slashes and
// parent segments.
func CleanPath(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

func PublicURL(baseURL, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.Join(segments, "/")
}
