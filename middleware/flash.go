package middleware

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// Flash kinds rendered with different styling.
const (
	FlashError   = "error"
	FlashSuccess = "success"
)

const (
	flashCookie     = "stufor_flash"
	contextFlashKey = "flash"
)

// Flash is a one-shot status message shown on the next rendered page only.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// FlashReader consumes the flash cookie, if any, into the request context.
// The cookie is cleared immediately so the message renders exactly once.
func FlashReader() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, err := ctx.Cookie(flashCookie)
		if err == nil && raw != "" {
			clearCookie(ctx, flashCookie)
			if b, err := base64.URLEncoding.DecodeString(raw); err == nil {
				var f Flash
				if err := json.Unmarshal(b, &f); err == nil {
					ctx.Set(contextFlashKey, &f)
				}
			}
		}
		ctx.Next()
	}
}

// SetFlash queues a message for the next rendered page.
func SetFlash(ctx *gin.Context, kind, message string) {
	b, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	ctx.SetCookie(flashCookie, base64.URLEncoding.EncodeToString(b), 300, "/", "", false, true)
}

// CurrentFlash returns the consumed flash for this request, if any.
func CurrentFlash(ctx *gin.Context) (*Flash, bool) {
	value, exists := ctx.Get(contextFlashKey)
	if !exists {
		return nil, false
	}
	f, ok := value.(*Flash)
	return f, ok
}
