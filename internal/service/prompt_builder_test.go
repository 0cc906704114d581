package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndtutor/tutor-api/internal/dto"
)

func TestPromptBuilderBaseOnly(t *testing.T) {
	builder := NewPromptBuilder()

	prompt := builder.Build("  You are Sam, a cafe owner.  ", nil, false)

	assert.True(t, strings.HasPrefix(prompt, "You are Sam, a cafe owner."))
	assert.Contains(t, prompt, "## Autonomous Tracking")
	assert.Contains(t, prompt, "mark_for_review")
	assert.NotContains(t, prompt, "Task Completion")
	assert.NotContains(t, prompt, "Review Session Tools")
}

func TestPromptBuilderWithTasks(t *testing.T) {
	builder := NewPromptBuilder()

	prompt := builder.Build("scenario", []dto.PromptTask{
		{ID: "1", Text: "Order a drink"},
		{ID: "2", Text: "Ask for the bill"},
	}, false)

	assert.Contains(t, prompt, "### Task Completion")
	assert.Contains(t, prompt, `- task_id="1" → Order a drink`)
	assert.Contains(t, prompt, `- task_id="2" → Ask for the bill`)
	assert.Contains(t, prompt, "mark_task_complete")
}

func TestPromptBuilderReviewLesson(t *testing.T) {
	builder := NewPromptBuilder()

	prompt := builder.Build("scenario", nil, true)

	assert.Contains(t, prompt, "### Review Session Tools")
	assert.Contains(t, prompt, "play_student_audio")
	assert.Contains(t, prompt, "mark_item_mastered")
}

func TestPromptBuilderSectionOrder(t *testing.T) {
	builder := NewPromptBuilder()

	prompt := builder.Build("scenario", []dto.PromptTask{{ID: "1", Text: "t"}}, true)

	scenarioIdx := strings.Index(prompt, "scenario")
	taskIdx := strings.Index(prompt, "### Task Completion")
	reviewIdx := strings.Index(prompt, "### Review Session Tools")
	baseIdx := strings.Index(prompt, "## Autonomous Tracking")

	require.True(t, scenarioIdx >= 0 && taskIdx > 0 && reviewIdx > 0 && baseIdx > 0)
	assert.Less(t, scenarioIdx, taskIdx)
	assert.Less(t, taskIdx, reviewIdx)
	assert.Less(t, reviewIdx, baseIdx)
}
