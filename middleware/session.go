package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stufor/stufor/config"
	"github.com/stufor/stufor/models"
	"github.com/stufor/stufor/utils"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "stufor_session"
	// SignupCookie carries the signup token during the verification handshake.
	SignupCookie = "stufor_signup"

	contextUserKey = "current_user"

	// Tokens older than this are reissued on the next request, giving the
	// cookie its sliding expiry.
	reissueAfter = 24 * time.Hour
)

// SessionLoader decodes the session cookie, loads the user and attaches it to
// the request context. Invalid or stale cookies are treated as logged out.
func SessionLoader(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenStr, err := ctx.Cookie(SessionCookie)
		if err != nil || tokenStr == "" {
			ctx.Next()
			return
		}

		claims, err := utils.ParseSessionToken(tokenStr)
		if err != nil {
			clearCookie(ctx, SessionCookie)
			ctx.Next()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			clearCookie(ctx, SessionCookie)
			ctx.Next()
			return
		}

		if claims.IssuedAt != nil && time.Since(claims.IssuedAt.Time) > reissueAfter {
			IssueSession(ctx, &user)
		}

		ctx.Set(contextUserKey, &user)
		ctx.Next()
	}
}

// LoginRequired redirects anonymous requests to the login page, recording the
// originally requested path so login can return the user there.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUser(ctx); ok {
			ctx.Next()
			return
		}
		SetFlash(ctx, FlashError, "You need to be logged in for that.")
		next := url.QueryEscape(ctx.Request.URL.RequestURI())
		ctx.Redirect(http.StatusFound, "/login?next="+next)
		ctx.Abort()
	}
}

// CurrentUser returns the authenticated user attached by SessionLoader.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	value, exists := ctx.Get(contextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// IssueSession sets a fresh session cookie for the user.
func IssueSession(ctx *gin.Context, user *models.User) {
	cfg := config.Get()
	lifetime := time.Duration(cfg.SessionDays) * 24 * time.Hour
	token, err := utils.GenerateSessionToken(user.ID, user.Username, lifetime)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("session token issue failed for user %d: %v", user.ID, err)
		}
		return
	}
	ctx.SetCookie(SessionCookie, token, int(lifetime.Seconds()), "/", "", false, true)
}

// ClearSession removes the session cookie.
func ClearSession(ctx *gin.Context) {
	clearCookie(ctx, SessionCookie)
}

func clearCookie(ctx *gin.Context, name string) {
	ctx.SetCookie(name, "", -1, "/", "", false, true)
}
