// Package http is the local control API of the daemon.
package http

import (
	"context"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/adapters/signal"
	"github.com/dkeye/voiceroom/internal/app"
	"github.com/dkeye/voiceroom/internal/config"
	"github.com/dkeye/voiceroom/internal/core"
)

const (
	clientTokenKey    = "client_token"
	clientTokenCookie = "ct"
	lastSessionKey    = "last_session"
	joinLimit         = 10
	joinInterval      = time.Minute
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(clientTokenCookie)
		if token == "" {
			token = genClientToken()
			c.SetCookie(clientTokenCookie, token, 3600*24*7, "/", "", false, true)
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

type Deps struct {
	Registry *app.Registry
	// Graph is used to connect streams by hand when autopilot is off.
	Graph core.Graph
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("VoiceSessions", store))
	r.Use(ClientTokenMiddleware())

	h := &handlers{
		reg:    deps.Registry,
		graph:  deps.Graph,
		stream: signal.NewEventStream(cfg.PingPeriod),
		ctx:    ctx,
	}
	joins := NewRateLimiter(joinLimit, joinInterval)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")

	api := r.Group("/api")
	api.GET("/health", h.health)
	api.GET("/sessions", h.listSessions)
	api.POST("/sessions", h.createSession)
	api.GET("/sessions/current", h.currentSession)

	s := api.Group("/sessions/:id", h.loadSession)
	s.GET("", h.getSession)
	s.DELETE("", h.deleteSession)
	s.POST("/join", Limit(joins), h.join)
	s.POST("/leave", h.leave)
	s.PUT("/user-data", h.updateUserData)
	s.PUT("/position", h.updatePosition)
	s.PUT("/position-scale", h.setPositionScale)
	s.PUT("/apm", h.updateAPM)
	s.POST("/messages", h.sendMessage)
	s.POST("/media", h.addMedia)
	s.DELETE("/media/:handle", h.removeMedia)
	s.GET("/media/:handle/stats", h.mediaStats)
	s.POST("/media/:handle/connect", h.connectMedia)
	s.POST("/media/:handle/disconnect", h.disconnectMedia)
	s.GET("/events", h.events)

	return r
}
