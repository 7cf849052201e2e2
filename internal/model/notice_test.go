package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilpost/dsa-core/internal/model"
)

func TestNoticeJSONUsesCamelCaseKeys(t *testing.T) {
	// Arrange
	notice := model.Notice{
		ContentID:           "msg-1",
		ReportedContentType: "forum_post",
		PublicToken:         "secret-token",
		CreatedAt:           time.Now(),
	}

	// Act
	raw, err := json.Marshal(notice)

	// Assert
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `"contentId":"msg-1"`)
	assert.Contains(t, body, `"reportedContentType":"forum_post"`)
	assert.Contains(t, body, `"createdAt"`)
	assert.NotContains(t, body, "content_id")
	assert.NotContains(t, body, "created_at")
	assert.NotContains(t, body, "secret-token", "public token must never serialize")
}

func TestDecisionAndAppealJSONUseCamelCaseKeys(t *testing.T) {
	decision := model.Decision{
		NoticeID:  uuid.New(),
		Outcome:   model.OutcomeContentRemoved,
		DecidedBy: "admin:lena",
		DecidedAt: time.Now(),
	}
	appeal := model.Appeal{
		FiledBy:   "uploader@example.org",
		FiledAt:   time.Now(),
		Arguments: "the post quoted the slur to condemn it",
	}

	decisionJSON, err := json.Marshal(decision)
	require.NoError(t, err)
	appealJSON, err := json.Marshal(appeal)
	require.NoError(t, err)

	assert.Contains(t, string(decisionJSON), `"noticeId"`)
	assert.Contains(t, string(decisionJSON), `"decidedBy"`)
	assert.NotContains(t, string(decisionJSON), "notice_id")
	assert.Contains(t, string(appealJSON), `"filedBy"`)
	assert.NotContains(t, string(appealJSON), "filed_by")
}
