package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ndtutor/tutor-api/internal/models"
)

// PulseRepository stores the per-teacher per-day Class Pulse snapshot.
type PulseRepository struct {
	client *firestore.Client
}

// NewPulseRepository constructs the repository.
func NewPulseRepository(client *firestore.Client) *PulseRepository {
	return &PulseRepository{client: client}
}

func (r *PulseRepository) doc(teacherID, day string) *firestore.DocumentRef {
	return r.client.Collection("teachers").Doc(teacherID).Collection("dailyInsights").Doc(day)
}

// Get returns the snapshot for the given day. The bool reports existence.
func (r *PulseRepository) Get(ctx context.Context, teacherID, day string) (models.PulseSnapshot, bool, error) {
	doc, err := r.doc(teacherID, day).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.PulseSnapshot{}, false, nil
		}
		return models.PulseSnapshot{}, false, fmt.Errorf("get pulse snapshot for %s/%s: %w", teacherID, day, err)
	}

	var snapshot models.PulseSnapshot
	if err := doc.DataTo(&snapshot); err != nil {
		return models.PulseSnapshot{}, false, fmt.Errorf("decode pulse snapshot %s/%s: %w", teacherID, day, err)
	}
	return snapshot, true, nil
}

// Set overwrites the day's snapshot. Concurrent generations race here with
// last-write-wins; at-most-one generation per day is best effort only.
func (r *PulseRepository) Set(ctx context.Context, teacherID, day string, snapshot models.PulseSnapshot) error {
	if _, err := r.doc(teacherID, day).Set(ctx, snapshot); err != nil {
		return fmt.Errorf("set pulse snapshot for %s/%s: %w", teacherID, day, err)
	}
	return nil
}

// Touch refreshes the stillValidAt timestamp on an existing snapshot.
func (r *PulseRepository) Touch(ctx context.Context, teacherID, day string, now time.Time) error {
	_, err := r.doc(teacherID, day).Update(ctx, []firestore.Update{{Path: "stillValidAt", Value: now}})
	if err != nil {
		return fmt.Errorf("touch pulse snapshot for %s/%s: %w", teacherID, day, err)
	}
	return nil
}
