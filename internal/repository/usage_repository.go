package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/ndtutor/tutor-api/internal/models"
)

// UsageRepository sums token consumption per user. Two schema generations
// exist: a per-user sessions subcollection and a legacy root tokenUsage
// collection. The legacy path is consulted only when the new one yields
// nothing, so records are never counted twice.
type UsageRepository struct {
	client *firestore.Client
}

// NewUsageRepository constructs the repository.
func NewUsageRepository(client *firestore.Client) *UsageRepository {
	return &UsageRepository{client: client}
}

// SumByUser totals the user's input/output tokens inside the window.
func (r *UsageRepository) SumByUser(ctx context.Context, userID string, window models.Window) (models.UsageTotals, error) {
	query := r.client.Collection("users").Doc(userID).Collection("sessions").
		Where("startTime", ">=", window.Start).
		Where("startTime", "<=", window.End)

	totals, err := r.sum(ctx, query.Documents(ctx))
	if err != nil {
		return models.UsageTotals{}, fmt.Errorf("sum usage sessions for %s: %w", userID, err)
	}
	if totals.SessionCount > 0 {
		return totals, nil
	}

	legacy := r.client.Collection("tokenUsage").
		Where("userId", "==", userID).
		Where("startTime", ">=", window.Start).
		Where("startTime", "<=", window.End)

	totals, err = r.sum(ctx, legacy.Documents(ctx))
	if err != nil {
		return models.UsageTotals{}, fmt.Errorf("sum legacy token usage for %s: %w", userID, err)
	}
	return totals, nil
}

func (r *UsageRepository) sum(ctx context.Context, iter *firestore.DocumentIterator) (models.UsageTotals, error) {
	defer iter.Stop()

	var totals models.UsageTotals
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return models.UsageTotals{}, err
		}
		data := doc.Data()
		totals.InputTokens += asInt64(data["inputTokens"])
		totals.OutputTokens += asInt64(data["outputTokens"])
		totals.SessionCount++
	}
	return totals, nil
}
