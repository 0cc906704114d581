package dto

// GenerateReviewRequest asks for a weekly review lesson for one student.
type GenerateReviewRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// GenerateReviewBatchRequest queues review generation for many students.
type GenerateReviewBatchRequest struct {
	UserIDs []string `json:"userIds" binding:"required"`
}

// ReviewLessonResponse describes a generated review lesson.
type ReviewLessonResponse struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	WeekStart        string `json:"weekStart"`
	Status           string `json:"status"`
	ItemCount        int    `json:"itemCount"`
	UserLevel        string `json:"userLevel"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	CreatedAt        string `json:"createdAt"`
}

// ReviewBatchResponse reports how many generations were queued.
type ReviewBatchResponse struct {
	Queued int `json:"queued"`
}
