package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/ndtutor/tutor-api/internal/models"
)

// ReviewItemRepository reads and mutates per-user review items.
type ReviewItemRepository struct {
	client *firestore.Client
}

// NewReviewItemRepository constructs the repository.
func NewReviewItemRepository(client *firestore.Client) *ReviewItemRepository {
	return &ReviewItemRepository{client: client}
}

func (r *ReviewItemRepository) items(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection("reviewItems")
}

// ListByUser returns the user's review items created inside the window,
// newest first.
func (r *ReviewItemRepository) ListByUser(ctx context.Context, userID string, window models.Window) ([]models.ReviewItem, error) {
	query := r.items(userID).
		Where("createdAt", ">=", window.Start).
		Where("createdAt", "<=", window.End).
		OrderBy("createdAt", firestore.Desc)

	return r.collect(ctx, userID, query.Documents(ctx))
}

// ListUnmastered returns every item the user has not yet mastered.
func (r *ReviewItemRepository) ListUnmastered(ctx context.Context, userID string) ([]models.ReviewItem, error) {
	query := r.items(userID).Where("mastered", "==", false)
	return r.collect(ctx, userID, query.Documents(ctx))
}

// CountMastered returns how many items the user has mastered.
func (r *ReviewItemRepository) CountMastered(ctx context.Context, userID string) (int, error) {
	iter := r.items(userID).Where("mastered", "==", true).Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("count mastered items for %s: %w", userID, err)
		}
		count++
	}
	return count, nil
}

// MarkReviewed records one review pass over an item in a single write:
// reviewCount, lastReviewedAt, review membership, and the mastered flag
// always change together so the mastery invariant cannot be observed broken.
func (r *ReviewItemRepository) MarkReviewed(ctx context.Context, userID, itemID string, newCount int, mastered bool, now time.Time, reviewID string) error {
	updates := []firestore.Update{
		{Path: "reviewCount", Value: newCount},
		{Path: "lastReviewedAt", Value: now},
		{Path: "includedInReviews", Value: firestore.ArrayUnion(reviewID)},
	}
	if mastered {
		updates = append(updates, firestore.Update{Path: "mastered", Value: true})
	}

	if _, err := r.items(userID).Doc(itemID).Update(ctx, updates); err != nil {
		return fmt.Errorf("mark item %s reviewed for %s: %w", itemID, userID, err)
	}
	return nil
}

func (r *ReviewItemRepository) collect(ctx context.Context, userID string, iter *firestore.DocumentIterator) ([]models.ReviewItem, error) {
	defer iter.Stop()

	var items []models.ReviewItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list review items for %s: %w", userID, err)
		}
		items = append(items, decodeReviewItem(doc.Ref.ID, userID, doc.Data()))
	}
	return items, nil
}
