package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps blobs in a MongoDB GridFS bucket. Blobs are served by
// the application at urlPrefix/<object id>.
type GridFSStore struct {
	client    *mongo.Client
	bucket    *gridfs.Bucket
	urlPrefix string
}

// NewGridFSStore connects to MongoDB and opens the default "fs" bucket.
func NewGridFSStore(ctx context.Context, uri, database, urlPrefix string) (*GridFSStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	bucket, err := gridfs.NewBucket(client.Database(database))
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}

	return &GridFSStore{client: client, bucket: bucket, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Put uploads data under key as the GridFS filename. The returned key is the
// GridFS object id.
func (s *GridFSStore) Put(ctx context.Context, key, contentType string, data []byte) (*Object, error) {
	if _, err := cleanKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType, "key": key})
	id, err := s.bucket.UploadFromStream(key, bytes.NewReader(data), opts)
	if err != nil {
		return nil, fmt.Errorf("gridfs upload: %w", err)
	}

	return &Object{Key: id.Hex(), URL: s.urlPrefix + "/" + id.Hex()}, nil
}

// Delete removes a blob by object id.
func (s *GridFSStore) Delete(_ context.Context, key string) error {
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return ErrInvalidKey
	}
	if err := s.bucket.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}

// Open streams a blob and reports its content type.
func (s *GridFSStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return nil, "", ErrNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("gridfs open: %w", err)
	}

	contentType := "application/octet-stream"
	if file := stream.GetFile(); file != nil && file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			contentType = ct
		}
	}
	return stream, contentType, nil
}

// Close disconnects from MongoDB.
func (s *GridFSStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
