// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth registers and authenticates storefront users. Passwords are
// bcrypt hashes, sessions are stateless JWTs that logout can revoke, and
// accounts may add a TOTP second factor. Password recovery uses six digit
// codes that expire after five minutes and can be used once.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"coursestore/internal/apperr"
	"coursestore/internal/database"
	"coursestore/internal/datauri"
	mailer "coursestore/internal/mail"
	"coursestore/internal/models"
	"coursestore/internal/session"
	"coursestore/internal/store"
)

const (
	// ResetCodeTTL is how long a recovery code stays valid.
	ResetCodeTTL = 5 * time.Minute

	// RecoverMessage is returned whether or not the email exists.
	RecoverMessage = "If the email exists, recovery instructions were sent."

	totpIssuer = "CourseStore"
)

// MembershipFinder returns a user's current membership, or nil.
type MembershipFinder interface {
	Membership(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
}

// Service implements account operations.
type Service struct {
	db          *database.DB
	users       *store.UserStore
	resets      *store.PasswordResetStore
	memberships MembershipFinder
	tokens      *Tokens
	revoker     session.Revoker
	mail        mailer.Sender
	bcryptCost  int
	now         func() time.Time
}

// NewService creates an auth Service. A nil revoker keeps revocations in
// process memory; a nil sender logs outgoing mail.
func NewService(db *database.DB, tokens *Tokens, memberships MembershipFinder, revoker session.Revoker, sender mailer.Sender) *Service {
	if revoker == nil {
		revoker = session.NewMemory()
	}
	if sender == nil {
		sender = mailer.Log{}
	}
	return &Service{
		db:          db,
		users:       store.NewUserStore(db),
		resets:      store.NewPasswordResetStore(db),
		memberships: memberships,
		tokens:      tokens,
		revoker:     revoker,
		mail:        sender,
		bcryptCost:  bcrypt.DefaultCost,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Result is a profile together with a freshly issued token.
type Result struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// RegisterInput is the payload of a sign-up.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Register creates a user account with the "user" role and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	u, err := s.CreateUser(ctx, in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", u.ID, "email", u.Email)
	return s.issue(ctx, u)
}

// CreateUser creates an account with the given role.
func (s *Service) CreateUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Invalid("Email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid("Email is not valid")
	}
	if !role.Valid() {
		return nil, apperr.Invalid("Role is not valid")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		Status:       models.UserActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, err
	}
	return u, nil
}

// LoginInput is the payload of a sign-in.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totpCode"`
}

// Login authenticates by email and password. A blocked account is reported
// as blocked before the password is checked. Accounts with TOTP enabled
// must also supply a current code.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Result, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Invalid("Email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	if u.IsBlocked() {
		return nil, apperr.Forbidden("Account blocked")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}

	if u.TOTPEnabled && u.TOTPSecret != nil {
		if in.TOTPCode == "" {
			return nil, apperr.Unauthenticated("Two-factor code required")
		}
		if !totp.Validate(strings.TrimSpace(in.TOTPCode), *u.TOTPSecret) {
			return nil, apperr.Unauthenticated("Invalid two-factor code")
		}
	}

	slog.Info("user logged in", "user_id", u.ID)
	return s.issue(ctx, u)
}

func (s *Service) issue(ctx context.Context, u *models.User) (*Result, error) {
	if err := s.attachMembership(ctx, u); err != nil {
		return nil, err
	}
	token, _, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Result{User: u, Token: token}, nil
}

func (s *Service) attachMembership(ctx context.Context, u *models.User) error {
	if s.memberships == nil {
		return nil
	}
	m, err := s.memberships.Membership(ctx, u.ID)
	if err != nil {
		return err
	}
	u.Membership = m
	return nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
	Claims *Claims
}

// IsStaff reports whether the caller may manage the catalog.
func (p *Principal) IsStaff() bool {
	return p.Role == models.RoleAdmin || p.Role == models.RoleEditor
}

// IsAdmin reports whether the caller is an administrator.
func (p *Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Authenticate verifies a bearer token and loads the current state of its
// user, so role changes and blocks apply to tokens already issued.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		slog.Debug("token rejected", "error", err)
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}
	revoked, err := s.revoker.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}

	id, _ := claims.UserID()
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}
	if u.IsBlocked() {
		return nil, apperr.Forbidden("Account blocked")
	}
	return &Principal{UserID: u.ID, Email: u.Email, Role: u.Role, Claims: claims}, nil
}

// Logout revokes the token described by claims.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Me returns a user's profile with their membership attached.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	if err := s.attachMembership(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RequestReset issues a recovery code for email and mails it. Unknown
// addresses are ignored so callers cannot probe for accounts.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperr.Invalid("Email is required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		slog.Info("password recovery for unknown email")
		return nil
	}

	code, err := newResetCode()
	if err != nil {
		return err
	}
	r := &models.PasswordReset{Email: email, Code: code, ExpiresAt: s.now().Add(ResetCodeTTL)}
	if err := s.resets.Create(ctx, r); err != nil {
		return err
	}
	if err := s.mail.Send(ctx, mailer.ResetCode(email, code, ResetCodeTTL)); err != nil {
		slog.Error("send recovery code failed", "user_id", u.ID, "error", err)
	}
	return nil
}

// ResetInput is the payload of a code-based password reset.
type ResetInput struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword consumes a recovery code and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, in ResetInput) error {
	email := normalizeEmail(in.Email)
	code := strings.TrimSpace(in.Code)
	if email == "" || code == "" || in.NewPassword == "" {
		return apperr.Invalid("Email, code and new password are required")
	}
	hash, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}

	invalid := apperr.Invalid("Invalid or expired code")
	return s.db.InTx(ctx, func(tx *database.Tx) error {
		resets := s.resets.WithTx(tx)
		r, err := resets.FindValid(ctx, email, code, s.now())
		if err != nil {
			return err
		}
		if r == nil {
			return invalid
		}
		ok, err := resets.Consume(ctx, r.ID)
		if err != nil {
			return err
		}
		if !ok {
			return invalid
		}
		if err := s.users.WithTx(tx).UpdatePasswordByEmail(ctx, email, hash); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return invalid
			}
			return err
		}
		slog.Info("password reset", "email", email)
		return nil
	})
}

// ChangePasswordInput is the payload of an authenticated password change.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return apperr.Invalid("Current and new password are required")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.NotFound("User not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return apperr.Unauthenticated("Current password is incorrect")
	}
	hash, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// TOTPSetup is what a client needs to enroll an authenticator app.
type TOTPSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	QRCode string `json:"qrCode"` // PNG data URI
}

// SetupTOTP generates and stores a new TOTP secret. The factor is not
// enforced until EnableTOTP confirms a code.
func (s *Service) SetupTOTP(ctx context.Context, userID uuid.UUID) (*TOTPSetup, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	if u.TOTPEnabled {
		return nil, apperr.Conflict("Two-factor authentication is already enabled")
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: totpIssuer, AccountName: u.Email})
	if err != nil {
		return nil, fmt.Errorf("generate totp: %w", err)
	}
	if err := s.users.SetTOTPSecret(ctx, u.ID, key.Secret()); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode totp qr: %w", err)
	}
	return &TOTPSetup{Secret: key.Secret(), URL: key.URL(), QRCode: datauri.Encode("image/png", png)}, nil
}

// EnableTOTP turns on the second factor once the user proves possession.
func (s *Service) EnableTOTP(ctx context.Context, userID uuid.UUID, code string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.NotFound("User not found")
	}
	if u.TOTPSecret == nil {
		return apperr.Invalid("Two-factor setup has not been started")
	}
	if !totp.Validate(strings.TrimSpace(code), *u.TOTPSecret) {
		return apperr.Invalid("Invalid two-factor code")
	}
	if err := s.users.EnableTOTP(ctx, u.ID); err != nil {
		return err
	}
	slog.Info("two-factor enabled", "user_id", u.ID)
	return nil
}

// SetStatus blocks or unblocks an account.
func (s *Service) SetStatus(ctx context.Context, userID uuid.UUID, status models.UserStatus) error {
	if !status.Valid() {
		return apperr.Invalid("Status must be active or blocked")
	}
	return notFoundIfMissing(s.users.SetStatus(ctx, userID, status))
}

// SetRole changes an account's role.
func (s *Service) SetRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return apperr.Invalid("Role must be user, editor or admin")
	}
	return notFoundIfMissing(s.users.SetRole(ctx, userID, role))
}

// RehashPasswords converts stored passwords that are not bcrypt hashes
// into bcrypt hashes and returns how many it changed.
func (s *Service) RehashPasswords(ctx context.Context) (int, error) {
	creds, err := s.users.ListCredentials(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range creds {
		if isBcrypt(c.Hash) {
			continue
		}
		hash, err := s.hash(c.Hash)
		if err != nil {
			return n, err
		}
		if err := s.users.UpdatePassword(ctx, c.ID, hash); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Invalid("Password is too long")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func isBcrypt(hash string) bool {
	if len(hash) != 60 {
		return false
	}
	_, err := bcrypt.Cost([]byte(hash))
	return err == nil
}

func notFoundIfMissing(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("User not found")
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newResetCode returns a uniformly random code in [100000, 999999].
func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
