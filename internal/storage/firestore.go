package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shellbridge/authflow/internal/log"
)

// Ensure FirestoreStorage implements the Storage interface
var _ Storage = (*FirestoreStorage)(nil)

// FirestoreStorage implements Storage on Google Cloud Firestore, one document
// per key. Used when sessions and state records must survive restarts or be
// shared across instances.
type FirestoreStorage struct {
	client     *firestore.Client
	collection string
}

// firestoreEntry is the document layout for a stored key
type firestoreEntry struct {
	Key       string    `firestore:"key"`
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// NewFirestoreStorage creates a Firestore-backed storage instance
func NewFirestoreStorage(ctx context.Context, projectID, database, collection string) (*FirestoreStorage, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	var client *firestore.Client
	var err error

	if database != "" && database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreStorage{
		client:     client,
		collection: collection,
	}, nil
}

// docID maps a storage key to a Firestore document ID. Keys contain colons,
// which Firestore permits; slashes would split the path and are replaced.
func (s *FirestoreStorage) docID(key string) string {
	return strings.ReplaceAll(key, "/", "|")
}

// Get retrieves the value stored under key
func (s *FirestoreStorage) Get(ctx context.Context, key string) (string, error) {
	doc, err := s.client.Collection(s.collection).Doc(s.docID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("reading %s: %w", key, err)
	}

	var entry firestoreEntry
	if err := doc.DataTo(&entry); err != nil {
		return "", fmt.Errorf("decoding %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set stores value under key, overwriting any previous value
func (s *FirestoreStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.client.Collection(s.collection).Doc(s.docID(key)).Set(ctx, firestoreEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *FirestoreStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.Collection(s.collection).Doc(s.docID(key)).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// DeleteOlderThan removes entries under prefix last written before cutoff
func (s *FirestoreStorage) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	iter := s.client.Collection(s.collection).
		Where("updated_at", "<", cutoff).
		Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, fmt.Errorf("sweeping expired entries: %w", err)
		}

		var entry firestoreEntry
		if err := doc.DataTo(&entry); err != nil {
			log.LogWarnWithFields("storage", "Skipping undecodable entry during sweep", map[string]any{
				"doc": doc.Ref.ID,
			})
			continue
		}
		if !strings.HasPrefix(entry.Key, prefix) {
			continue
		}

		if _, err := doc.Ref.Delete(ctx); err != nil {
			log.LogErrorWithFields("storage", "Failed to delete expired entry", map[string]any{
				"key":   entry.Key,
				"error": err.Error(),
			})
			continue
		}
		count++
	}
	return count, nil
}

// Close releases the underlying Firestore client
func (s *FirestoreStorage) Close() error {
	return s.client.Close()
}
