package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/ndtutor/tutor-api/internal/models"
)

// SessionSummaryRepository reads the per-user denormalized session records.
type SessionSummaryRepository struct {
	client *firestore.Client
}

// NewSessionSummaryRepository constructs the repository.
func NewSessionSummaryRepository(client *firestore.Client) *SessionSummaryRepository {
	return &SessionSummaryRepository{client: client}
}

// ListByUser returns the user's session summaries inside the window.
func (r *SessionSummaryRepository) ListByUser(ctx context.Context, userID string, window models.Window) ([]models.SessionSummary, error) {
	query := r.client.Collection("users").Doc(userID).Collection("sessionSummaries").
		Where("createdAt", ">=", window.Start).
		Where("createdAt", "<=", window.End)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var summaries []models.SessionSummary
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list session summaries for %s: %w", userID, err)
		}

		var summary models.SessionSummary
		if err := doc.DataTo(&summary); err != nil {
			return nil, fmt.Errorf("decode session summary %s: %w", doc.Ref.ID, err)
		}
		summary.UserID = userID
		summaries = append(summaries, summary)
	}

	return summaries, nil
}
