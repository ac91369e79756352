package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avelov/huddle/internal/adapters/ws"
	"github.com/avelov/huddle/internal/app"
	"github.com/avelov/huddle/internal/config"
	"github.com/avelov/huddle/internal/domain"
)

// IdentityMiddleware resolves the caller's verified identity. A session
// written by the auth service carries user_id and email; anyone else is
// assigned a sticky guest identity so local runs work without the auth
// stack in front.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		id, _ := sess.Get("user_id").(string)
		email, _ := sess.Get("email").(string)
		if id == "" {
			id, _ = c.Cookie("guest")
			if id == "" {
				id = uuid.NewString()
				c.SetCookie("guest", id, 3600*24*7, "/", "", false, true)
			}
			email = "guest-" + id[:8]
		}
		c.Set("identity", id)
		c.Set("email", email)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, reg *app.Registry, disp *app.Dispatcher) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSession", store))
	r.Use(IdentityMiddleware())

	limiter := ws.NewRateLimiter(cfg.RateLimit.Frames, cfg.RateLimit.Window)
	ctrl := ws.NewController(reg, disp, limiter, cfg)

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws/chat", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString("identity")).Msg("ws chat endpoint hit")
		ctrl.HandleChat(ctx, c)
	})

	api.GET("/users", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"users": reg.Roster()})
	})

	api.GET("/users/:id/present", func(c *gin.Context) {
		id := domain.UserID(c.Param("id"))
		c.JSON(http.StatusOK, gin.H{
			"userId":      id,
			"present":     reg.IsPresent(id),
			"connections": reg.ConnCount(id),
		})
	})

	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, reg.Stats())
	})

	return r
}
