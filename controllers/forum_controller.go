package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stufor/stufor/forum"
	"github.com/stufor/stufor/middleware"
)

// ForumController serves the listing pages and the thread/post lifecycle.
type ForumController struct {
	svc *forum.Service
}

// NewForumController creates a ForumController.
func NewForumController(svc *forum.Service) *ForumController {
	return &ForumController{svc: svc}
}

// Home lists recent and popular threads plus the category boards.
func (f *ForumController) Home(ctx *gin.Context) {
	rc := ctx.Request.Context()

	recent, err := f.svc.ListRecentThreads(rc, 20)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}
	popular, err := f.svc.ListPopularThreads(rc, 5)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}
	categories, err := f.svc.Categories(rc)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}

	ids := make([]uint, 0, len(recent))
	for _, t := range recent {
		ids = append(ids, t.ID)
	}
	counts, err := f.svc.PostCounts(rc, ids)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}

	render(ctx, http.StatusOK, "home.html", gin.H{
		"Recent":     recent,
		"Popular":    popular,
		"Categories": categories,
		"PostCounts": counts,
	})
}

// Category lists threads in one board, newest activity first.
func (f *ForumController) Category(ctx *gin.Context) {
	name := ctx.Param("name")
	rc := ctx.Request.Context()

	cat, err := f.svc.CategoryByName(rc, name)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}
	threads, err := f.svc.ListByCategory(rc, name, 50)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}

	render(ctx, http.StatusOK, "category.html", gin.H{
		"Category": cat,
		"Threads":  threads,
	})
}

// NewThreadForm renders the thread creation form for a board.
func (f *ForumController) NewThreadForm(ctx *gin.Context) {
	name := ctx.Param("name")
	cat, err := f.svc.CategoryByName(ctx.Request.Context(), name)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}
	render(ctx, http.StatusOK, "new_thread.html", gin.H{"Category": cat})
}

// CreateThread persists a new thread with its first post. Validation failures
// re-render the form with a 400.
func (f *ForumController) CreateThread(ctx *gin.Context) {
	name := ctx.Param("name")
	user, _ := middleware.CurrentUser(ctx)

	title := ctx.PostForm("title")
	body := ctx.PostForm("body")

	thread, err := f.svc.CreateThread(ctx.Request.Context(), name, title, body, user)
	if err != nil {
		if ve, ok := forum.AsValidation(err); ok {
			cat, catErr := f.svc.CategoryByName(ctx.Request.Context(), name)
			if catErr != nil {
				failForum(ctx, catErr, "/")
				return
			}
			render(ctx, http.StatusBadRequest, "new_thread.html", gin.H{
				"Category": cat,
				"Error":    ve.Message,
				"Field":    ve.Field,
				"Title":    title,
				"Body":     body,
			})
			return
		}
		failForum(ctx, err, "/category/"+name)
		return
	}

	redirectWithFlash(ctx, middleware.FlashSuccess, "Thread created.", fmt.Sprintf("/thread/%d", thread.ID))
}

// ShowThread renders a thread with its posts in arrival order.
func (f *ForumController) ShowThread(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	thread, err := f.svc.GetThread(ctx.Request.Context(), id)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}
	render(ctx, http.StatusOK, "thread.html", gin.H{"Thread": thread})
}

// AddPost appends a reply to a thread.
func (f *ForumController) AddPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(ctx)
	threadPath := fmt.Sprintf("/thread/%d", id)

	if _, err := f.svc.AddPost(ctx.Request.Context(), id, ctx.PostForm("body"), user); err != nil {
		if ve, ok := forum.AsValidation(err); ok {
			redirectWithFlash(ctx, middleware.FlashError, ve.Message, threadPath)
			return
		}
		failForum(ctx, err, threadPath)
		return
	}
	ctx.Redirect(http.StatusFound, threadPath)
}

// EditPost replaces a post body; author only. Sent as a PATCH from the thread
// page.
func (f *ForumController) EditPost(ctx *gin.Context) {
	tid, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "pid")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(ctx)
	threadPath := fmt.Sprintf("/thread/%d", tid)

	post, err := f.svc.GetPost(ctx.Request.Context(), postID)
	if err != nil || post.ThreadID != tid {
		renderError(ctx, http.StatusNotFound, "That post does not exist.")
		return
	}

	if _, err := f.svc.EditPost(ctx.Request.Context(), postID, ctx.PostForm("body"), user); err != nil {
		if ve, ok := forum.AsValidation(err); ok {
			redirectWithFlash(ctx, middleware.FlashError, ve.Message, threadPath)
			return
		}
		failForum(ctx, err, threadPath)
		return
	}
	ctx.Redirect(http.StatusFound, threadPath)
}

// DeletePost removes a post: owners freely, admins with a logged reason.
func (f *ForumController) DeletePost(ctx *gin.Context) {
	tid, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "pid")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(ctx)
	threadPath := fmt.Sprintf("/thread/%d", tid)

	if err := f.svc.DeletePost(ctx.Request.Context(), postID, user, deleteReason(ctx)); err != nil {
		failForum(ctx, err, threadPath)
		return
	}
	redirectWithFlash(ctx, middleware.FlashSuccess, "Post deleted.", threadPath)
}

// DeleteThread removes a thread and all its posts.
func (f *ForumController) DeleteThread(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(ctx)
	threadPath := fmt.Sprintf("/thread/%d", id)

	thread, err := f.svc.GetThread(ctx.Request.Context(), id)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}

	if err := f.svc.DeleteThread(ctx.Request.Context(), id, user, deleteReason(ctx)); err != nil {
		failForum(ctx, err, threadPath)
		return
	}
	redirectWithFlash(ctx, middleware.FlashSuccess, "Thread deleted.", "/category/"+thread.Category)
}

// Search matches thread titles, optionally restricted to one originator.
func (f *ForumController) Search(ctx *gin.Context) {
	query := ctx.Query("q")
	author := ctx.Query("user")

	threads, err := f.svc.Search(ctx.Request.Context(), query, author)
	if err != nil {
		failForum(ctx, err, "/")
		return
	}
	render(ctx, http.StatusOK, "search.html", gin.H{
		"Query":   query,
		"Author":  author,
		"Threads": threads,
	})
}

// deleteReason reads the moderation reason from either the form body or the
// query string; DELETE requests from the thread page scripts use the latter.
func deleteReason(ctx *gin.Context) string {
	if reason := ctx.PostForm("reason"); reason != "" {
		return reason
	}
	return ctx.Query("reason")
}

func parseID(ctx *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 32)
	if err != nil {
		renderError(ctx, http.StatusNotFound, "That page does not exist.")
		return 0, false
	}
	return uint(id), true
}
