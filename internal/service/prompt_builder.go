package service

import (
	"fmt"
	"strings"

	"github.com/ndtutor/tutor-api/internal/dto"
)

// Tool instructions injected into every live session prompt.
const baseToolInstructions = `

## Autonomous Tracking (use silently, never announce to student)

### Error Tracking
When the student makes a linguistic error, call ` + "`mark_for_review`" + ` silently:
- Grammar mistakes (wrong tense, word order, conjugation)
- Pronunciation errors (if apparent from context)
- Vocabulary misuse (wrong word choice)
Include: error_type, severity (1-10), user_sentence, correction, explanation

### User Preferences
When you learn about student interests or preferences, call ` + "`update_user_profile`" + ` to personalize future sessions.

### Session Summary
When the lesson naturally ends or student says goodbye, call ` + "`show_session_summary`" + ` with:
- 2-4 things the student did well (did_well)
- 2-3 areas to work on (work_on)
- 1-5 star rating based on participation and effort (stars)
- An encouraging summary paragraph (summary_text)
`

// Injected only when the lesson carries tasks. %s receives the task list.
const taskInstructionsTemplate = `
### Task Completion
Call ` + "`mark_task_complete`" + ` IMMEDIATELY when the student achieves each objective:
%s

Do not wait - call as soon as the task is clearly completed.
`

// Injected only for review lessons.
const reviewInstructions = `
### Review Session Tools
- Call ` + "`play_student_audio`" + ` to play back the student's original mistake before correcting
- Call ` + "`mark_item_mastered`" + ` when student demonstrates clear understanding of a reviewed item
  - Only call if they use it correctly in context, not just repeating after you
  - Include confidence level: low (hesitant), medium (minor issues), high (natural)
`

// PromptBuilder assembles live-session system prompts: teacher content
// first, then the tool instruction blocks the frontend never has to manage.
type PromptBuilder struct{}

// NewPromptBuilder constructs the builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build joins the prompt sections in a fixed order: teacher content, task
// instructions when tasks exist, review tools for review lessons, and the
// base tracking instructions always last.
func (b *PromptBuilder) Build(teacherPrompt string, tasks []dto.PromptTask, isReviewLesson bool) string {
	sections := []string{strings.TrimSpace(teacherPrompt)}

	if len(tasks) > 0 {
		taskLines := make([]string, 0, len(tasks))
		for _, task := range tasks {
			taskLines = append(taskLines, fmt.Sprintf("- task_id=%q → %s", task.ID, task.Text))
		}
		sections = append(sections, fmt.Sprintf(taskInstructionsTemplate, strings.Join(taskLines, "\n")))
	}

	if isReviewLesson {
		sections = append(sections, reviewInstructions)
	}

	sections = append(sections, baseToolInstructions)

	return strings.Join(sections, "\n")
}
