package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stufor/stufor/config"
	"github.com/stufor/stufor/controllers"
	"github.com/stufor/stufor/forum"
	"github.com/stufor/stufor/middleware"
	"github.com/stufor/stufor/utils"
)

// SetupRouter wires middlewares, template rendering and all routes.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(utils.Logger))
	r.Use(middleware.Recovery(utils.Logger))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Use(middleware.FlashReader())
	r.Use(middleware.SessionLoader(db))

	r.LoadHTMLGlob("templates/*.html")
	r.Static("/static", "./static")

	svc := forum.NewService(db)
	auth := forum.NewAuthService(db, utils.NewSignupStore(), utils.SendMail)

	forumController := controllers.NewForumController(svc)
	authController := controllers.NewAuthController(auth)
	profileController := controllers.NewProfileController(auth, svc)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Listings and search are public.
	r.GET("/", forumController.Home)
	r.GET("/category/:name", forumController.Category)
	r.GET("/thread/:id", forumController.ShowThread)
	r.GET("/search", forumController.Search)
	r.GET("/profile/:name", profileController.Show)

	// Auth pages, rate limited against abuse.
	authGroup := r.Group("")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.GET("/signup", authController.ShowSignup)
	authGroup.POST("/signup", authController.Signup)
	authGroup.GET("/verify", authController.ShowVerify)
	authGroup.POST("/verify", authController.Verify)
	authGroup.GET("/resend", authController.Resend)
	authGroup.GET("/login", authController.ShowLogin)
	authGroup.POST("/login", authController.Login)

	// Everything below needs a session.
	protected := r.Group("")
	protected.Use(middleware.LoginRequired())
	protected.GET("/logout", authController.Logout)
	protected.GET("/category/:name/new", forumController.NewThreadForm)
	protected.POST("/category/:name/new", forumController.CreateThread)
	protected.POST("/thread/:id", forumController.AddPost)
	protected.PATCH("/thread/:id/post/:pid", forumController.EditPost)
	protected.DELETE("/thread/:id/post/:pid", forumController.DeletePost)
	protected.DELETE("/thread/:id", forumController.DeleteThread)
	protected.GET("/profile/:name/edit", profileController.EditForm)
	protected.PATCH("/profile/:name/edit", profileController.Update)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.HTML(http.StatusNotFound, "error.html", gin.H{
			"Status":  http.StatusNotFound,
			"Message": "That page does not exist.",
		})
	})

	return r
}
