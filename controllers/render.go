package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stufor/stufor/forum"
	"github.com/stufor/stufor/middleware"
)

// render merges the per-request context values (current user, consumed flash)
// into the template data and writes the page.
func render(ctx *gin.Context, status int, template string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := middleware.CurrentUser(ctx); ok {
		data["CurrentUser"] = user
	}
	if f, ok := middleware.CurrentFlash(ctx); ok {
		data["Flash"] = f
	}
	ctx.HTML(status, template, data)
}

func renderError(ctx *gin.Context, status int, message string) {
	render(ctx, status, "error.html", gin.H{
		"Status":  status,
		"Message": message,
	})
}

func redirectWithFlash(ctx *gin.Context, kind, message, target string) {
	middleware.SetFlash(ctx, kind, message)
	ctx.Redirect(http.StatusFound, target)
}

// failForum translates service errors that are not handled at the call site:
// NotFound gets the 404 page, permission problems bounce back to the resource
// with a flash (never a hard 403 page), everything else is a 500.
func failForum(ctx *gin.Context, err error, resourcePath string) {
	switch {
	case errors.Is(err, forum.ErrNotFound):
		renderError(ctx, http.StatusNotFound, "That page does not exist.")
	case errors.Is(err, forum.ErrPermission):
		redirectWithFlash(ctx, middleware.FlashError, "You are not allowed to do that.", resourcePath)
	case errors.Is(err, forum.ErrReasonRequired):
		redirectWithFlash(ctx, middleware.FlashError, "Moderator deletions need a reason.", resourcePath)
	default:
		renderError(ctx, http.StatusInternalServerError, "Something went wrong on our side.")
	}
}
