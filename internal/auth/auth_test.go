// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"coursestore/internal/database"
	"coursestore/internal/database/dbtest"
	"coursestore/internal/enrollment"
	"coursestore/internal/mail"
	"coursestore/internal/models"
	"coursestore/internal/session"
	"coursestore/internal/store"
)

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, m mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
	return nil
}

func (o *outbox) last() (mail.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return mail.Message{}, false
	}
	return o.sent[len(o.sent)-1], true
}

var codeRe = regexp.MustCompile(`\b\d{6}\b`)

func newAuth(t *testing.T) (*Service, *database.DB, *outbox) {
	t.Helper()
	db := dbtest.New(t)
	box := &outbox{}
	s := NewService(db, NewTokens("test-secret", time.Hour), enrollment.NewService(db, nil), session.NewMemory(), box)
	s.bcryptCost = bcrypt.MinCost
	return s, db, box
}

func register(t *testing.T, s *Service, email, password string) *Result {
	t.Helper()
	res, err := s.Register(context.Background(), RegisterInput{Email: email, Password: password, FirstName: "Ana", LastName: "López"})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	s, _, _ := newAuth(t)

	res := register(t, s, "  Ana@Example.com ", "secreto123")
	assert.Equal(t, "ana@example.com", res.User.Email)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.Token)
	assert.Nil(t, res.User.Membership)

	_, err := s.Register(context.Background(), RegisterInput{Email: "ana@example.com", Password: "otra"})
	assert.True(t, errdefs.IsAlreadyExists(err))

	_, err = s.Register(context.Background(), RegisterInput{Email: "", Password: "x"})
	assert.True(t, errdefs.IsInvalidArgument(err))

	_, err = s.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "x"})
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestLogin(t *testing.T) {
	s, _, _ := newAuth(t)
	ctx := context.Background()
	register(t, s, "ana@example.com", "secreto123")

	res, err := s.Login(ctx, LoginInput{Email: "ANA@example.com", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", res.User.Email)

	_, err = s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong"})
	assert.True(t, errdefs.IsUnauthorized(err))

	_, err = s.Login(ctx, LoginInput{Email: "nadie@example.com", Password: "secreto123"})
	assert.True(t, errdefs.IsUnauthorized(err))
}

func TestLogin_BlockedBeforePassword(t *testing.T) {
	s, _, _ := newAuth(t)
	ctx := context.Background()
	res := register(t, s, "ana@example.com", "secreto123")
	require.NoError(t, s.SetStatus(ctx, res.User.ID, models.UserBlocked))

	_, err := s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong"})
	assert.True(t, errdefs.IsPermissionDenied(err))
}

func TestLogin_AttachesMembership(t *testing.T) {
	s, db, _ := newAuth(t)
	ctx := context.Background()
	res := register(t, s, "vip@example.com", "secreto123")

	_, _, err := enrollment.NewService(db, nil).GrantMembership(ctx, res.User.ID, "cs_test_vip")
	require.NoError(t, err)

	res, err = s.Login(ctx, LoginInput{Email: "vip@example.com", Password: "secreto123"})
	require.NoError(t, err)
	require.NotNil(t, res.User.Membership)
	assert.Equal(t, "cs_test_vip", res.User.Membership.PaymentID)
}

func TestAuthenticate(t *testing.T) {
	s, _, _ := newAuth(t)
	ctx := context.Background()
	res := register(t, s, "ana@example.com", "secreto123")

	p, err := s.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, p.UserID)
	assert.False(t, p.IsStaff())

	require.NoError(t, s.SetRole(ctx, res.User.ID, models.RoleEditor))
	p, err = s.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, p.IsStaff())
	assert.False(t, p.IsAdmin())

	require.NoError(t, s.SetStatus(ctx, res.User.ID, models.UserBlocked))
	_, err = s.Authenticate(ctx, res.Token)
	assert.True(t, errdefs.IsPermissionDenied(err))

	_, err = s.Authenticate(ctx, "garbage")
	assert.True(t, errdefs.IsUnauthorized(err))
}

func TestLogout_RevokesToken(t *testing.T) {
	s, _, _ := newAuth(t)
	ctx := context.Background()
	res := register(t, s, "ana@example.com", "secreto123")

	p, err := s.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx, p.Claims))

	_, err = s.Authenticate(ctx, res.Token)
	assert.True(t, errdefs.IsUnauthorized(err))

	other, err := s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, other.Token)
	assert.NoError(t, err, "a new login is unaffected")
}

func TestPasswordRecovery(t *testing.T) {
	s, _, box := newAuth(t)
	ctx := context.Background()
	register(t, s, "ana@example.com", "secreto123")

	require.NoError(t, s.RequestReset(ctx, "nadie@example.com"))
	_, ok := box.last()
	assert.False(t, ok, "unknown emails get no mail")

	require.NoError(t, s.RequestReset(ctx, "ana@example.com"))
	msg, ok := box.last()
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", msg.To)
	code := codeRe.FindString(msg.Text)
	require.Len(t, code, 6)

	err := s.ResetPassword(ctx, ResetInput{Email: "ana@example.com", Code: "000000", NewPassword: "nueva"})
	if code != "000000" {
		assert.True(t, errdefs.IsInvalidArgument(err))
	}

	require.NoError(t, s.ResetPassword(ctx, ResetInput{Email: "ana@example.com", Code: code, NewPassword: "nueva456"}))

	err = s.ResetPassword(ctx, ResetInput{Email: "ana@example.com", Code: code, NewPassword: "otra789"})
	assert.True(t, errdefs.IsInvalidArgument(err), "codes are single use")

	_, err = s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "nueva456"})
	assert.NoError(t, err)
}

func TestPasswordRecovery_Expired(t *testing.T) {
	s, _, box := newAuth(t)
	ctx := context.Background()
	register(t, s, "ana@example.com", "secreto123")

	require.NoError(t, s.RequestReset(ctx, "ana@example.com"))
	msg, _ := box.last()
	code := codeRe.FindString(msg.Text)

	s.now = func() time.Time { return time.Now().UTC().Add(ResetCodeTTL + time.Minute) }
	err := s.ResetPassword(ctx, ResetInput{Email: "ana@example.com", Code: code, NewPassword: "nueva456"})
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestChangePassword(t *testing.T) {
	s, _, _ := newAuth(t)
	ctx := context.Background()
	res := register(t, s, "ana@example.com", "secreto123")

	err := s.ChangePassword(ctx, res.User.ID, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "nueva"})
	assert.True(t, errdefs.IsUnauthorized(err))

	require.NoError(t, s.ChangePassword(ctx, res.User.ID, ChangePasswordInput{CurrentPassword: "secreto123", NewPassword: "nueva456"}))
	_, err = s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "nueva456"})
	assert.NoError(t, err)
}

func TestTOTP(t *testing.T) {
	s, _, _ := newAuth(t)
	ctx := context.Background()
	res := register(t, s, "ana@example.com", "secreto123")

	setup, err := s.SetupTOTP(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	// Not enforced until confirmed.
	_, err = s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)

	assert.True(t, errdefs.IsInvalidArgument(s.EnableTOTP(ctx, res.User.ID, "000000x")))

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.EnableTOTP(ctx, res.User.ID, code))

	_, err = s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "secreto123"})
	assert.True(t, errdefs.IsUnauthorized(err))

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	_, err = s.Login(ctx, LoginInput{Email: "ana@example.com", Password: "secreto123", TOTPCode: code})
	assert.NoError(t, err)

	_, err = s.SetupTOTP(ctx, res.User.ID)
	assert.True(t, errdefs.IsAlreadyExists(err))
}

func TestAdminUserManagement(t *testing.T) {
	s, _, _ := newAuth(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, RegisterInput{Email: "editor@example.com", Password: "x1"}, models.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, u.Role)

	_, err = s.CreateUser(ctx, RegisterInput{Email: "x@example.com", Password: "x1"}, models.Role("root"))
	assert.True(t, errdefs.IsInvalidArgument(err))

	assert.True(t, errdefs.IsInvalidArgument(s.SetStatus(ctx, u.ID, "frozen")))
	assert.True(t, errdefs.IsInvalidArgument(s.SetRole(ctx, u.ID, "root")))
	assert.True(t, errdefs.IsNotFound(s.SetRole(ctx, uuid.New(), models.RoleAdmin)))
}

func TestRehashPasswords(t *testing.T) {
	s, db, _ := newAuth(t)
	ctx := context.Background()
	res := register(t, s, "ana@example.com", "secreto123")
	plain := dbtest.User(t, db, "legacy@example.com")
	require.NoError(t, store.NewUserStore(db).UpdatePassword(ctx, plain, "legacy-pass"))

	n, err := s.RehashPasswords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Login(ctx, LoginInput{Email: "legacy@example.com", Password: "legacy-pass"})
	assert.NoError(t, err)
	_, err = s.Login(ctx, LoginInput{Email: res.User.Email, Password: "secreto123"})
	assert.NoError(t, err)

	n, err = s.RehashPasswords(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
