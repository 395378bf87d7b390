package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/agora/internal/auth"
	"github.com/steemit/agora/internal/service"
	"github.com/steemit/agora/pkg/config"
	"github.com/steemit/agora/pkg/logging"
)

// Services are the use cases the HTTP API exposes
type Services struct {
	Users         *service.UserService
	Communities   *service.CommunityService
	Posts         *service.PostService
	Reviews       *service.ReviewService
	Contributions *service.ContributionService
	Discussion    *service.DiscussionService
	Conversations *service.ConversationService
	Notifications *service.NotificationService
	Uploads       *service.UploadService
}

// HealthCheck reports whether a backing store is reachable
type HealthCheck func(ctx context.Context) error

// Router sets up API routes
type Router struct {
	svc       Services
	issuer    *auth.Issuer
	sessions  Sessions
	limiter   *ipLimiter
	maxUpload int64
	checks    map[string]HealthCheck
	logger    *zap.Logger
}

// NewRouter creates a new API router. sessions may be nil.
func NewRouter(svc Services, issuer *auth.Issuer, sessions Sessions, cfg *config.ServerConfig) *Router {
	r := &Router{
		svc:       svc,
		issuer:    issuer,
		sessions:  sessions,
		maxUpload: cfg.MaxUpload,
		checks:    make(map[string]HealthCheck),
		logger:    logging.WithComponent("api-router"),
	}
	if cfg.RateLimit > 0 {
		r.limiter = newIPLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	return r
}

// AddHealthCheck registers a dependency reported by /health
func (r *Router) AddHealthCheck(name string, check HealthCheck) {
	r.checks[name] = check
}

// SweepLimiter drops idle rate limit buckets until ctx is done
func (r *Router) SweepLimiter(ctx context.Context, every time.Duration) {
	if r.limiter == nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.limiter.sweep(every)
		}
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(tracing(), requestID(), accessLog())
	if r.maxUpload > 0 {
		engine.MaxMultipartMemory = r.maxUpload
	}

	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	api := engine.Group("/api")
	if r.limiter != nil {
		api.Use(r.limiter.middleware())
	}

	api.POST("/auth/register", r.register)
	api.POST("/auth/login", r.login)
	api.POST("/auth/refresh", r.refresh)

	api.GET("/communities", r.listCommunities)
	api.GET("/communities/:id", r.getCommunity)
	api.GET("/users/:id", r.getUser)

	a := api.Group("", authenticate(r.issuer, r.sessions))

	a.POST("/auth/logout", r.logout)
	a.GET("/me", r.me)
	a.PUT("/me", r.updateProfile)
	a.GET("/me/posts", r.myPosts)
	a.GET("/me/notifications", r.listNotifications)
	a.GET("/me/notifications/unread-count", r.unreadCount)
	a.POST("/me/notifications/read-all", r.markAllRead)
	a.POST("/notifications/:id/read", r.markRead)

	a.POST("/communities", r.createCommunity)
	a.PUT("/communities/:id", r.updateCommunity)
	a.GET("/communities/:id/role", r.myRole)
	a.POST("/communities/:id/join", r.joinCommunity)
	a.POST("/communities/:id/leave", r.leaveCommunity)
	a.GET("/communities/:id/members", r.listMembers)
	a.GET("/communities/:id/requests", r.listRequests)
	a.POST("/communities/:id/requests", r.requestContributor)
	a.POST("/contributor-requests/:id/approve", r.approveRequest)
	a.POST("/contributor-requests/:id/reject", r.rejectRequest)
	a.GET("/communities/:id/bans", r.listBans)
	a.POST("/communities/:id/bans", r.banUser)
	a.DELETE("/communities/:id/bans/:userId", r.unbanUser)

	a.GET("/communities/:id/posts", r.listPosts)
	a.POST("/communities/:id/posts", r.createPost)
	a.GET("/posts/:id", r.getPost)
	a.PUT("/posts/:id", r.updatePost)
	a.DELETE("/posts/:id", r.deletePost)
	a.POST("/posts/:id/submit", r.submitPost)
	a.GET("/posts/:id/reviews", r.listReviews)
	a.POST("/posts/:id/reviews", r.submitReview)
	a.GET("/posts/:id/status", r.postStatus)

	a.GET("/posts/:id/contributions", r.listContributions)
	a.POST("/posts/:id/contributions", r.proposeContribution)
	a.GET("/contributions/:id", r.getContribution)
	a.POST("/contributions/:id/votes", r.voteContribution)

	a.GET("/posts/:id/comments", r.listComments)
	a.POST("/posts/:id/comments", r.addComment)
	a.DELETE("/comments/:id", r.deleteComment)

	a.GET("/communities/:id/questions", r.listQuestions)
	a.POST("/communities/:id/questions", r.askQuestion)
	a.GET("/questions/:id", r.getQuestion)
	a.DELETE("/questions/:id", r.deleteQuestion)
	a.POST("/questions/:id/answers", r.answerQuestion)
	a.POST("/questions/:id/accept", r.acceptAnswer)

	a.GET("/conversations", r.listConversations)
	a.POST("/conversations", r.startConversation)
	a.DELETE("/conversations/:id", r.deleteConversation)
	a.GET("/conversations/:id/messages", r.listMessages)
	a.POST("/conversations/:id/messages", r.sendMessage)

	a.POST("/uploads", r.upload)
}

// healthHandler reports the state of every registered dependency
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			r.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	state := "OK"
	if status != http.StatusOK {
		state = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"service":      "agora-api",
		"dependencies": deps,
	})
}

// pathID parses a positive numeric path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

func queryInt64(c *gin.Context, name string) int64 {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func bind(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

// bindOptional binds a JSON body when one was sent
func bindOptional(c *gin.Context, dest interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bind(c, dest)
}
