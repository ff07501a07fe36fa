package application

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabbli/accounts/pkg/mailer"
)

func newInviteEnv(t *testing.T) (*InviteService, *testEnv, *capturePublisher) {
	t.Helper()
	env := newTestEnv(t)
	emails := &capturePublisher{}
	svc := NewInviteService(env.invites, env.users, emails, "https://tabbli.example", quietLogger())
	return svc, env, emails
}

var inviteCodeRe = regexp.MustCompile(`^[a-z]{30}$`)

func TestAllocateCodeShape(t *testing.T) {
	svc, _, _ := newInviteEnv(t)
	code, err := svc.AllocateCode()
	require.NoError(t, err)
	assert.Regexp(t, inviteCodeRe, code)
}

func TestAllocateCodeSkipsTaken(t *testing.T) {
	svc, env, _ := newInviteEnv(t)

	inv, err := svc.Create(CreateInviteInput{Email: "a@example.com"})
	require.NoError(t, err)

	// Force the existing code to stay taken and allocate a lot more.
	seen := map[string]bool{inv.Code: true}
	for i := 0; i < 50; i++ {
		code, err := svc.AllocateCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "allocated a taken or repeated code")
		seen[code] = true
		env.invites.preTake[code] = true
	}
}

func TestCreateInviteNormalizesEmail(t *testing.T) {
	svc, _, _ := newInviteEnv(t)

	inv, err := svc.Create(CreateInviteInput{Email: " Invitee@Example.COM "})
	require.NoError(t, err)
	assert.Equal(t, "invitee@example.com", inv.Email)
	assert.Regexp(t, inviteCodeRe, inv.Code)

	_, err = svc.Create(CreateInviteInput{})
	assert.ErrorIs(t, err, ErrMissingEmail)
}

func TestSendQueuesInviteEmail(t *testing.T) {
	svc, env, emails := newInviteEnv(t)

	sender, err := env.svc.CreateUser(CreateUserInput{Email: "admin@example.com", Name: "Ada Admin", Password: "pw123456"})
	require.NoError(t, err)

	inv, err := svc.CreateAndSend(context.Background(), CreateInviteInput{
		Email:    "guest@example.com",
		SentByID: sender.ID,
	})
	require.NoError(t, err)

	require.Len(t, emails.sent, 1)
	var job mailer.EmailJob
	require.NoError(t, json.Unmarshal(emails.sent[0], &job))
	assert.Equal(t, "guest@example.com", job.To)
	assert.Equal(t, "invite", job.Template)
	assert.Equal(t, "Ada Admin", job.Data["SenderName"])
	assert.Equal(t, "https://tabbli.example/register?invite_code="+inv.Code, job.Data["RegistrationURL"])
}

func TestSendFallsBackToProductName(t *testing.T) {
	svc, _, emails := newInviteEnv(t)

	_, err := svc.CreateAndSend(context.Background(), CreateInviteInput{Email: "guest@example.com"})
	require.NoError(t, err)

	require.Len(t, emails.sent, 1)
	var job mailer.EmailJob
	require.NoError(t, json.Unmarshal(emails.sent[0], &job))
	assert.Equal(t, "Tabbli", job.Data["SenderName"])
}

func TestResendRejectsConsumedInvite(t *testing.T) {
	svc, env, emails := newInviteEnv(t)

	inv, err := svc.Create(CreateInviteInput{Email: "guest@example.com"})
	require.NoError(t, err)

	_, err = env.svc.Register(RegisterInput{InviteCode: inv.Code, Name: "G", Password: "pw123456"})
	require.NoError(t, err)

	_, err = svc.Resend(context.Background(), inv.ID)
	assert.ErrorIs(t, err, ErrInviteConsumed)
	assert.Empty(t, emails.sent)
}

func TestResendUnknownInvite(t *testing.T) {
	svc, _, _ := newInviteEnv(t)
	_, err := svc.Resend(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownInvite)
}
