package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ndtutor/tutor-api/internal/models"
)

// UserRepository reads student and teacher profiles.
type UserRepository struct {
	client *firestore.Client
}

// NewUserRepository constructs the repository.
func NewUserRepository(client *firestore.Client) *UserRepository {
	return &UserRepository{client: client}
}

// Get returns one user document.
func (r *UserRepository) Get(ctx context.Context, userID string) (models.User, error) {
	doc, err := r.client.Collection("users").Doc(userID).Get(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return r.decode(doc)
}

// GetMany fetches user documents by id. Missing documents are skipped, not
// reported as errors.
func (r *UserRepository) GetMany(ctx context.Context, userIDs []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(userIDs))
	for _, id := range userIDs {
		doc, err := r.client.Collection("users").Doc(id).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				continue
			}
			return nil, fmt.Errorf("get user %s: %w", id, err)
		}
		user, err := r.decode(doc)
		if err != nil {
			return nil, err
		}
		users[id] = user
	}
	return users, nil
}

// ListByTeacher returns every user linked to the teacher via the teacherId
// field. Used by the class mistakes view, which does not go through the
// mission/session chain.
func (r *UserRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.User, error) {
	iter := r.client.Collection("users").Where("teacherId", "==", teacherID).Documents(ctx)
	defer iter.Stop()

	var users []models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list users for teacher %s: %w", teacherID, err)
		}
		user, err := r.decode(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

func (r *UserRepository) decode(doc *firestore.DocumentSnapshot) (models.User, error) {
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return models.User{}, fmt.Errorf("decode user %s: %w", doc.Ref.ID, err)
	}
	user.ID = doc.Ref.ID
	return user, nil
}
