package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/ndtutor/tutor-api/internal/models"
)

// MissionRepository reads lesson templates.
type MissionRepository struct {
	client *firestore.Client
}

// NewMissionRepository constructs the repository.
func NewMissionRepository(client *firestore.Client) *MissionRepository {
	return &MissionRepository{client: client}
}

// ListByTeacher returns a teacher's missions, optionally filtered to one
// target level. Pass "all" or empty to skip the level filter.
func (r *MissionRepository) ListByTeacher(ctx context.Context, teacherID, level string) ([]models.Mission, error) {
	query := r.client.Collection("missions").Where("teacherId", "==", teacherID)
	if level != "" && level != "all" {
		query = query.Where("targetLevel", "==", level)
	}

	var missions []models.Mission
	iter := query.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list missions for teacher %s: %w", teacherID, err)
		}

		var mission models.Mission
		if err := doc.DataTo(&mission); err != nil {
			return nil, fmt.Errorf("decode mission %s: %w", doc.Ref.ID, err)
		}
		mission.ID = doc.Ref.ID
		missions = append(missions, mission)
	}

	return missions, nil
}
