// Package httpapi exposes the label order service over HTTP.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/douglasshinzato/price-tagger/internal/identity"
	"github.com/douglasshinzato/price-tagger/internal/service/lifecycle"
)

const callerIDKey = "caller_id"

// Server wires the gin engine to the application services.
type Server struct {
	engine   *gin.Engine
	orders   *lifecycle.Service
	identity *identity.Service
	logger   *log.Entry
}

// NewServer builds the HTTP server with all routes registered.
func NewServer(orders *lifecycle.Service, ident *identity.Service, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "httpapi")
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	s := &Server{engine: r, orders: orders, identity: ident, logger: logger}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine for serving and tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/signin", s.signIn)
		auth.POST("/signout", s.requireAuth, s.signOut)

		orders := v1.Group("/orders", s.requireAuth)
		orders.POST("", s.createOrder)
		orders.GET("", s.listOrders)
		orders.GET(":id", s.getOrder)
		orders.PUT(":id", s.updateOrder)
		orders.POST(":id/cancel", s.cancelOrder)
		orders.POST(":id/complete", s.completeOrder)

		pricing := v1.Group("/pricing", s.requireAuth)
		pricing.POST("/adjust", s.adjustPrice)
		pricing.POST("/quote", s.quotePrice)
	}
}

// requireAuth validates the bearer token and stores the caller id on the
// request context.
func (s *Server) requireAuth(c *gin.Context) {
	token, err := extractBearerToken(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
		return
	}

	callerID, err := s.identity.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	c.Set(callerIDKey, callerID)
	c.Next()
}

func callerID(c *gin.Context) string {
	id, _ := c.Get(callerIDKey)
	s, _ := id.(string)
	return s
}
