// Package media stores attachment payloads in MongoDB GridFS. The rest of
// the system treats file ids as opaque strings.
package media

import (
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
)

// GridFSStore persists binary payloads in a GridFS bucket.
type GridFSStore struct {
	db *mongo.Database
}

// NewGridFSStore creates a store over the named database.
func NewGridFSStore(client *mongo.Client, dbName string) *GridFSStore {
	return &GridFSStore{db: client.Database(dbName)}
}

// Upload streams the payload into GridFS and returns its file id.
func (s *GridFSStore) Upload(filename string, r io.Reader) (string, error) {
	bucket, err := gridfs.NewBucket(s.db)
	if err != nil {
		return "", fmt.Errorf("GridFSStore.Upload: %w", err)
	}

	stream, err := bucket.OpenUploadStream(filename)
	if err != nil {
		return "", fmt.Errorf("GridFSStore.Upload: open stream: %w", err)
	}

	if _, err := io.Copy(stream, r); err != nil {
		stream.Close()
		return "", fmt.Errorf("GridFSStore.Upload: copy: %w", err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("GridFSStore.Upload: close: %w", err)
	}

	return stream.FileID.(primitive.ObjectID).Hex(), nil
}

// Download reads the whole payload back.
func (s *GridFSStore) Download(fileID string) ([]byte, error) {
	bucket, err := gridfs.NewBucket(s.db)
	if err != nil {
		return nil, fmt.Errorf("GridFSStore.Download: %w", err)
	}

	objID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, fmt.Errorf("GridFSStore.Download: bad file id: %w", err)
	}

	stream, err := bucket.OpenDownloadStream(objID)
	if err != nil {
		return nil, fmt.Errorf("GridFSStore.Download: open stream: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("GridFSStore.Download: read: %w", err)
	}
	return data, nil
}

// Delete removes the payload. Deleting an already-missing file is not an
// error; listing cleanup must tolerate it.
func (s *GridFSStore) Delete(fileID string) error {
	bucket, err := gridfs.NewBucket(s.db)
	if err != nil {
		return fmt.Errorf("GridFSStore.Delete: %w", err)
	}

	objID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("GridFSStore.Delete: bad file id: %w", err)
	}

	if err := bucket.Delete(objID); err != nil && err != gridfs.ErrFileNotFound {
		return fmt.Errorf("GridFSStore.Delete: %w", err)
	}
	return nil
}
