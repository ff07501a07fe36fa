package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInvite(t *testing.T) {
	text, html, err := Render(Invite, map[string]any{
		"SenderName":      "Ada Admin",
		"RegistrationURL": "https://tabbli.example/register?invite_code=abc",
	})
	require.NoError(t, err)

	assert.Contains(t, text, "Ada Admin")
	assert.Contains(t, text, "https://tabbli.example/register?invite_code=abc")
	assert.Contains(t, html, "Ada Admin")
	assert.Contains(t, html, "https://tabbli.example/register?invite_code=abc")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("nope", nil)
	assert.Error(t, err)
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "Invitation for registration on Tabbli", Subject(Invite))
	assert.Equal(t, "Notification", Subject("anything-else"))
}
