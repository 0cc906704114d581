package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/ndtutor/tutor-api/internal/models"
)

// SessionRepository reads completed practice sessions.
type SessionRepository struct {
	client *firestore.Client
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(client *firestore.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// ListByMissions returns sessions for the given missions whose createdAt
// falls inside the window. Mission ids are chunked to stay under the store's
// "in" filter limit and the batches merged.
func (r *SessionRepository) ListByMissions(ctx context.Context, missionIDs []string, window models.Window) ([]models.Session, error) {
	if len(missionIDs) == 0 {
		return nil, nil
	}

	var sessions []models.Session
	for _, batch := range chunkIDs(missionIDs, inQueryLimit) {
		query := r.client.Collection("sessions").
			Where("missionId", "in", batch).
			Where("createdAt", ">=", window.Start).
			Where("createdAt", "<=", window.End)

		iter := query.Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return nil, fmt.Errorf("list sessions: %w", err)
			}

			var session models.Session
			if err := doc.DataTo(&session); err != nil {
				iter.Stop()
				return nil, fmt.Errorf("decode session %s: %w", doc.Ref.ID, err)
			}
			session.ID = doc.Ref.ID
			sessions = append(sessions, session)
		}
		iter.Stop()
	}

	return sessions, nil
}
