package forum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stufor/stufor/models"
	"github.com/stufor/stufor/utils"
)

const (
	UsernameMinLen = 5
	UsernameMaxLen = 50
	PasswordMinLen = 6
	PasswordMaxLen = 72 // bcrypt input limit

	otpDigits = 4
	otpTTL    = time.Hour
)

// CandidateStore holds signup candidates between registration and OTP
// verification, keyed by the signup token cookie. Entries expire with the OTP.
type CandidateStore interface {
	Save(token, payload string, ttl time.Duration)
	Get(token string) (string, bool)
	Delete(token string)
}

// MailFunc sends one outbound mail. Delivery is a single best-effort attempt.
type MailFunc func(to, subject, body string) error

// pendingSignup is the candidate held in the store; the users table is not
// touched until the handshake reaches Verified.
type pendingSignup struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// AuthService implements registration, the email verification handshake,
// credential checks and profile edits.
type AuthService struct {
	db         *gorm.DB
	candidates CandidateStore
	sendMail   MailFunc
	now        func() time.Time
}

// NewAuthService wires the auth flows. sendMail may be utils.SendMail in
// production or a capture func in tests.
func NewAuthService(db *gorm.DB, candidates CandidateStore, sendMail MailFunc) *AuthService {
	return &AuthService{db: db, candidates: candidates, sendMail: sendMail, now: time.Now}
}

// Register validates the signup form, stashes the candidate and mails a
// 4-digit code. It returns the signup token the caller must hand back with
// the code. No user row is created here.
func (a *AuthService) Register(ctx context.Context, username, email, password string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if n := len([]rune(username)); n < UsernameMinLen || n > UsernameMaxLen {
		return "", invalid("username", "username must be %d-%d characters", UsernameMinLen, UsernameMaxLen)
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return "", invalid("email", "enter a valid email address")
	}
	if len(password) < PasswordMinLen || len(password) > PasswordMaxLen {
		return "", invalid("password", "password must be %d-%d characters", PasswordMinLen, PasswordMaxLen)
	}

	var count int64
	if err := a.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", invalid("username", "username is already taken")
	}
	if err := a.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", invalid("email", "email is already registered")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	payload, err := json.Marshal(pendingSignup{Username: username, Email: email, PasswordHash: hash})
	if err != nil {
		return "", err
	}
	a.candidates.Save(token, string(payload), otpTTL)

	if err := a.issueCode(ctx, token, email); err != nil {
		a.candidates.Delete(token)
		return "", err
	}
	return token, nil
}

// Resend regenerates code and expiry for the same candidate, overwriting any
// prior record, and mails the fresh code.
func (a *AuthService) Resend(ctx context.Context, token string) error {
	payload, ok := a.candidates.Get(token)
	if !ok {
		return ErrNoPendingUser
	}
	var cand pendingSignup
	if err := json.Unmarshal([]byte(payload), &cand); err != nil {
		return err
	}
	// Keep the candidate alive as long as the new code.
	a.candidates.Save(token, payload, otpTTL)
	return a.issueCode(ctx, token, cand.Email)
}

// SubmitOTP drives the handshake transitions: match before expiry creates the
// user and ends the handshake; an expired code tears the handshake down
// regardless of correctness; a mismatch leaves it awaiting another attempt.
func (a *AuthService) SubmitOTP(ctx context.Context, token, code string) (*models.User, error) {
	payload, ok := a.candidates.Get(token)
	if !ok {
		return nil, ErrNoPendingUser
	}
	var cand pendingSignup
	if err := json.Unmarshal([]byte(payload), &cand); err != nil {
		return nil, err
	}

	var record models.VerificationToken
	err := a.db.WithContext(ctx).Where("signup_token = ?", token).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		a.candidates.Delete(token)
		return nil, ErrNoPendingUser
	}
	if err != nil {
		return nil, err
	}

	if record.Expired(a.now()) {
		if err := a.db.WithContext(ctx).Delete(&models.VerificationToken{}, record.ID).Error; err != nil {
			return nil, err
		}
		a.candidates.Delete(token)
		return nil, ErrCodeExpired
	}
	if strings.TrimSpace(code) != record.Code {
		return nil, ErrCodeMismatch
	}

	user := &models.User{
		Username:     cand.Username,
		Email:        cand.Email,
		PasswordHash: cand.PasswordHash,
		IsOnline:     true,
		CreatedAt:    a.now(),
	}
	if err := a.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	if err := a.db.WithContext(ctx).Delete(&models.VerificationToken{}, record.ID).Error; err != nil {
		return nil, err
	}
	a.candidates.Delete(token)
	return user, nil
}

// issueCode upserts the verification record for a signup token and mails it.
func (a *AuthService) issueCode(ctx context.Context, token, email string) error {
	code := utils.GenerateVerificationCode(otpDigits)
	now := a.now()

	var record models.VerificationToken
	err := a.db.WithContext(ctx).Where("signup_token = ?", token).First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.VerificationToken{
			SignupToken: token,
			Email:       email,
			Code:        code,
			CreatedAt:   now,
			ExpiresAt:   now.Add(otpTTL),
		}
		if err := a.db.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		record.Code = code
		record.CreatedAt = now
		record.ExpiresAt = now.Add(otpTTL)
		if err := a.db.WithContext(ctx).Save(&record).Error; err != nil {
			return err
		}
	}

	body := fmt.Sprintf("Your StuFor verification code is %s.\r\n\r\nIt expires in one hour. If you did not sign up, ignore this mail.", code)
	return a.sendMail(email, "StuFor email verification", body)
}

// Authenticate checks credentials and marks the user online. Unknown usernames
// and wrong passwords both come back as ErrBadCredentials.
func (a *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := a.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	if err := a.setOnline(ctx, user.ID, true); err != nil {
		return nil, err
	}
	user.IsOnline = true
	return &user, nil
}

// Logout flips the online flag; clearing the cookie is the handler's job.
func (a *AuthService) Logout(ctx context.Context, userID uint) error {
	return a.setOnline(ctx, userID, false)
}

// GetUserByName loads a public profile.
func (a *AuthService) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := a.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile edits the about-me text. Owner only; admins moderate content,
// they do not rewrite profiles.
func (a *AuthService) UpdateProfile(ctx context.Context, username, aboutMe string, requester *models.User) (*models.User, error) {
	user, err := a.GetUserByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.ID != requester.ID {
		return nil, ErrPermission
	}
	user.AboutMe = utils.Sanitize(strings.TrimSpace(aboutMe))
	if err := a.db.WithContext(ctx).Model(user).UpdateColumn("about_me", user.AboutMe).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (a *AuthService) setOnline(ctx context.Context, userID uint, online bool) error {
	return a.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("is_online", online).Error
}
