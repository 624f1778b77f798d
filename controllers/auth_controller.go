package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stufor/stufor/forum"
	"github.com/stufor/stufor/middleware"
)

// AuthController handles signup, the email verification handshake, login and
// logout. All pages are server rendered.
type AuthController struct {
	auth *forum.AuthService
}

// NewAuthController creates an AuthController.
func NewAuthController(auth *forum.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// ShowSignup renders the registration form.
func (a *AuthController) ShowSignup(ctx *gin.Context) {
	render(ctx, http.StatusOK, "signup.html", nil)
}

// Signup starts the handshake: stash the candidate, mail the code, drop the
// signup-token cookie and move the user to the verify page.
func (a *AuthController) Signup(ctx *gin.Context) {
	username := ctx.PostForm("username")
	email := ctx.PostForm("email")
	password := ctx.PostForm("password")

	if password != ctx.PostForm("confirm") {
		render(ctx, http.StatusBadRequest, "signup.html", gin.H{
			"Error":    "Passwords do not match.",
			"Username": username,
			"Email":    email,
		})
		return
	}

	token, err := a.auth.Register(ctx.Request.Context(), username, email, password)
	if err != nil {
		if ve, ok := forum.AsValidation(err); ok {
			render(ctx, http.StatusBadRequest, "signup.html", gin.H{
				"Error":    ve.Message,
				"Field":    ve.Field,
				"Username": username,
				"Email":    email,
			})
			return
		}
		renderError(ctx, http.StatusInternalServerError, "Could not start signup. Try again later.")
		return
	}

	// One hour, matching the OTP lifetime.
	ctx.SetCookie(middleware.SignupCookie, token, 3600, "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/verify")
}

// ShowVerify renders the code entry form.
func (a *AuthController) ShowVerify(ctx *gin.Context) {
	if _, err := ctx.Cookie(middleware.SignupCookie); err != nil {
		redirectWithFlash(ctx, middleware.FlashError, "Start by signing up first.", "/signup")
		return
	}
	render(ctx, http.StatusOK, "verify.html", nil)
}

// Verify consumes the submitted code and finishes or tears down the handshake.
func (a *AuthController) Verify(ctx *gin.Context) {
	token, err := ctx.Cookie(middleware.SignupCookie)
	if err != nil || token == "" {
		redirectWithFlash(ctx, middleware.FlashError, "Start by signing up first.", "/signup")
		return
	}

	user, err := a.auth.SubmitOTP(ctx.Request.Context(), token, ctx.PostForm("code"))
	switch {
	case err == nil:
		ctx.SetCookie(middleware.SignupCookie, "", -1, "/", "", false, true)
		middleware.IssueSession(ctx, user)
		redirectWithFlash(ctx, middleware.FlashSuccess, "Welcome to StuFor, "+user.Username+"!", "/")
	case errors.Is(err, forum.ErrCodeMismatch):
		render(ctx, http.StatusBadRequest, "verify.html", gin.H{
			"Error": "That code is not right. Check your mail and try again.",
		})
	case errors.Is(err, forum.ErrCodeExpired):
		ctx.SetCookie(middleware.SignupCookie, "", -1, "/", "", false, true)
		redirectWithFlash(ctx, middleware.FlashError, "Your code expired. Please sign up again.", "/signup")
	case errors.Is(err, forum.ErrNoPendingUser):
		ctx.SetCookie(middleware.SignupCookie, "", -1, "/", "", false, true)
		redirectWithFlash(ctx, middleware.FlashError, "No signup in progress. Please sign up first.", "/signup")
	default:
		renderError(ctx, http.StatusInternalServerError, "Verification failed. Try again later.")
	}
}

// Resend regenerates and re-mails the code for the pending signup.
func (a *AuthController) Resend(ctx *gin.Context) {
	token, err := ctx.Cookie(middleware.SignupCookie)
	if err != nil || token == "" {
		redirectWithFlash(ctx, middleware.FlashError, "Start by signing up first.", "/signup")
		return
	}
	if err := a.auth.Resend(ctx.Request.Context(), token); err != nil {
		if errors.Is(err, forum.ErrNoPendingUser) {
			ctx.SetCookie(middleware.SignupCookie, "", -1, "/", "", false, true)
			redirectWithFlash(ctx, middleware.FlashError, "No signup in progress. Please sign up first.", "/signup")
			return
		}
		renderError(ctx, http.StatusInternalServerError, "Could not resend the code. Try again later.")
		return
	}
	redirectWithFlash(ctx, middleware.FlashSuccess, "A fresh code is on its way.", "/verify")
}

// ShowLogin renders the login form, carrying the return path through.
func (a *AuthController) ShowLogin(ctx *gin.Context) {
	render(ctx, http.StatusOK, "login.html", gin.H{"Next": ctx.Query("next")})
}

// Login checks credentials, opens the session and returns the user to the page
// that sent them here.
func (a *AuthController) Login(ctx *gin.Context) {
	user, err := a.auth.Authenticate(ctx.Request.Context(), ctx.PostForm("username"), ctx.PostForm("password"))
	if err != nil {
		if errors.Is(err, forum.ErrBadCredentials) {
			redirectWithFlash(ctx, middleware.FlashError, "Invalid username or password.", "/login")
			return
		}
		renderError(ctx, http.StatusInternalServerError, "Login failed. Try again later.")
		return
	}

	middleware.IssueSession(ctx, user)
	ctx.Redirect(http.StatusFound, safeNext(ctx.PostForm("next")))
}

// Logout flips the online flag, clears the cookie and goes home.
func (a *AuthController) Logout(ctx *gin.Context) {
	if user, ok := middleware.CurrentUser(ctx); ok {
		_ = a.auth.Logout(ctx.Request.Context(), user.ID)
	}
	middleware.ClearSession(ctx)
	redirectWithFlash(ctx, middleware.FlashSuccess, "You are logged out.", "/")
}

// safeNext only honours local paths so the login redirect cannot be pointed
// off-site.
func safeNext(next string) string {
	if next == "" {
		return "/"
	}
	if decoded, err := url.QueryUnescape(next); err == nil {
		next = decoded
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
