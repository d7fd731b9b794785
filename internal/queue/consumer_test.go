package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage_AppendsLineWithoutToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "auth.log")
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	body, err := json.Marshal(AuthEvent{
		Type:       EventPasswordResetRequested,
		UserID:     "u-1",
		Email:      "a@x.com",
		Token:      "secret.reset.token",
		ExpiresAt:  at.Add(time.Hour),
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, HandleMessage(body, path))

	logout, _ := json.Marshal(AuthEvent{Type: EventUserLoggedOut, UserID: "u-1", OccurredAt: at})
	require.NoError(t, HandleMessage(logout, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[2026-02-03T04:05:06Z] Password reset requested | user_id=u-1 | email="a@x.com" | expires_at=2026-02-03T05:05:06Z`, lines[0])
	assert.Equal(t, `[2026-02-03T04:05:06Z] User logged out | user_id=u-1`, lines[1])
	assert.NotContains(t, string(data), "secret.reset.token")
}

func TestHandleMessage_Rejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.log")

	assert.Error(t, HandleMessage([]byte("{"), path))
	assert.Error(t, HandleMessage([]byte(`{"user_id":"u"}`), path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFormatLine_UnknownType(t *testing.T) {
	line := FormatLine(AuthEvent{Type: "custom", UserID: "u-9", OccurredAt: time.Unix(0, 0)})
	assert.Equal(t, "[1970-01-01T00:00:00Z] custom | user_id=u-9\n", line)
}
