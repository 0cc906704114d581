package dto

// PromptTask is one lesson objective injected into the system prompt.
type PromptTask struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BuildPromptRequest assembles a final tutoring system prompt.
type BuildPromptRequest struct {
	TeacherPrompt  string       `json:"teacherPrompt" binding:"required"`
	Tasks          []PromptTask `json:"tasks"`
	IsReviewLesson bool         `json:"isReviewLesson"`
}

// BuildPromptResponse carries the assembled prompt.
type BuildPromptResponse struct {
	Prompt string `json:"prompt"`
}
