package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/ndtutor/tutor-api/pkg/config"
)

// Firestore batches reject "in" filters beyond this many values.
const inQueryLimit = 30

// NewFirestoreClient builds the shared document-store client. Credentials
// fall back to application defaults when no file is configured.
func NewFirestoreClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client for project %s: %w", cfg.ProjectID, err)
	}

	return client, nil
}

// chunkIDs splits ids into batches no larger than the store's "in" limit.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = inQueryLimit
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
