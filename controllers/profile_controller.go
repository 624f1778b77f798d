package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stufor/stufor/forum"
	"github.com/stufor/stufor/middleware"
)

// ProfileController serves public profiles and the owner's about-me edit.
type ProfileController struct {
	auth *forum.AuthService
	svc  *forum.Service
}

// NewProfileController creates a ProfileController.
func NewProfileController(auth *forum.AuthService, svc *forum.Service) *ProfileController {
	return &ProfileController{auth: auth, svc: svc}
}

// Show renders a public profile with the user's recent threads.
func (p *ProfileController) Show(ctx *gin.Context) {
	name := ctx.Param("name")
	user, err := p.auth.GetUserByName(ctx.Request.Context(), name)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}
	threads, err := p.svc.Search(ctx.Request.Context(), "", user.Username)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}
	if len(threads) > 10 {
		threads = threads[:10]
	}
	render(ctx, http.StatusOK, "profile.html", gin.H{
		"Profile": user,
		"Threads": threads,
	})
}

// EditForm renders the about-me edit form; owner only.
func (p *ProfileController) EditForm(ctx *gin.Context) {
	name := ctx.Param("name")
	current, _ := middleware.CurrentUser(ctx)

	user, err := p.auth.GetUserByName(ctx.Request.Context(), name)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}
	if user.ID != current.ID {
		redirectWithFlash(ctx, middleware.FlashError, "You can only edit your own profile.", "/profile/"+name)
		return
	}
	render(ctx, http.StatusOK, "profile_edit.html", gin.H{"Profile": user})
}

// Update saves the about-me text. Sent as a PATCH from the edit form script.
func (p *ProfileController) Update(ctx *gin.Context) {
	name := ctx.Param("name")
	current, _ := middleware.CurrentUser(ctx)
	profilePath := "/profile/" + name

	if _, err := p.auth.UpdateProfile(ctx.Request.Context(), name, ctx.PostForm("about_me"), current); err != nil {
		failForum(ctx, err, profilePath)
		return
	}
	redirectWithFlash(ctx, middleware.FlashSuccess, "Profile updated.", profilePath)
}
