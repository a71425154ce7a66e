package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/douglasshinzato/price-tagger/internal/domain"
	"github.com/douglasshinzato/price-tagger/internal/pricing"
	"github.com/douglasshinzato/price-tagger/internal/service/lifecycle"
)

// Auth handlers

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResp struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	Employee  employeeResp `json:"employee"`
}

type employeeResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) signIn(c *gin.Context) {
	var req signInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	session, err := s.identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign-in failed"})
		return
	}

	c.JSON(http.StatusOK, signInResp{
		Token:     session.Token,
		TokenType: "Bearer",
		Employee: employeeResp{
			ID:    session.Employee.ID,
			Name:  session.Employee.Name,
			Email: session.Employee.Email,
			Role:  string(session.Employee.Role),
		},
	})
}

// signOut only acknowledges; tokens are stateless and expire on their own,
// the client discards its copy.
func (s *Server) signOut(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Order handlers

type orderReq struct {
	ProductName      string  `json:"product_name"`
	ProductDetails   string  `json:"product_details"`
	CurrentPrice     float64 `json:"current_price"`
	NeedsPriceUpdate bool    `json:"needs_price_update"`
	LabelQuantity    int     `json:"label_quantity"`
}

func (r orderReq) toInput() domain.OrderInput {
	return domain.OrderInput{
		ProductName:      r.ProductName,
		ProductDetails:   r.ProductDetails,
		CurrentPrice:     r.CurrentPrice,
		NeedsPriceUpdate: r.NeedsPriceUpdate,
		LabelQuantity:    r.LabelQuantity,
	}
}

type orderResp struct {
	ID               string     `json:"id"`
	EmployeeID       string     `json:"employee_id"`
	EmployeeName     string     `json:"employee_name"`
	ProductName      string     `json:"product_name"`
	ProductDetails   string     `json:"product_details,omitempty"`
	CurrentPrice     float64    `json:"current_price"`
	NeedsPriceUpdate bool       `json:"needs_price_update"`
	NewPrice         *float64   `json:"new_price,omitempty"`
	LabelQuantity    int        `json:"label_quantity"`
	Status           string     `json:"status"`
	Observations     string     `json:"observations,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func toOrderResp(o domain.Order) orderResp {
	return orderResp{
		ID:               o.ID,
		EmployeeID:       o.EmployeeID,
		EmployeeName:     o.EmployeeName,
		ProductName:      o.ProductName,
		ProductDetails:   o.ProductDetails,
		CurrentPrice:     o.CurrentPrice,
		NeedsPriceUpdate: o.NeedsPriceUpdate,
		NewPrice:         o.NewPrice,
		LabelQuantity:    o.LabelQuantity,
		Status:           string(o.Status),
		Observations:     o.Observations,
		CreatedAt:        o.CreatedAt,
		CompletedAt:      o.CompletedAt,
	}
}

func toOrderRespList(orders []domain.Order) []orderResp {
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o))
	}
	return out
}

func (s *Server) createOrder(c *gin.Context) {
	var req orderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	order, err := s.orders.Create(c.Request.Context(), callerID(c), req.toInput())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResp(order))
}

func (s *Server) getOrder(c *gin.Context) {
	order, err := s.orders.Get(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResp(order))
}

func (s *Server) listOrders(c *gin.Context) {
	status := domain.OrderStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	orders, err := s.orders.List(c.Request.Context(), callerID(c), status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderRespList(orders))
}

func (s *Server) updateOrder(c *gin.Context) {
	var req orderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	order, err := s.orders.Update(c.Request.Context(), callerID(c), c.Param("id"), req.toInput())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResp(order))
}

func (s *Server) cancelOrder(c *gin.Context) {
	if err := s.orders.Cancel(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type completeOrderReq struct {
	Observations string `json:"observations"`
}

func (s *Server) completeOrder(c *gin.Context) {
	// A missing body means "no observations".
	var req completeOrderReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	order, err := s.orders.Complete(c.Request.Context(), callerID(c), c.Param("id"), req.Observations)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResp(order))
}

// Pricing handlers

type adjustReq struct {
	CurrentPrice float64 `json:"current_price"`
}

type adjustResp struct {
	Discounted    float64 `json:"discounted"`
	Marked        float64 `json:"marked"`
	FinalPrice    float64 `json:"final_price"`
	CashValue     float64 `json:"cash_value"`
	DiscountValue float64 `json:"discount_value"`
}

func (s *Server) adjustPrice(c *gin.Context) {
	var req adjustReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.CurrentPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current_price must be positive"})
		return
	}

	adj := pricing.Adjust(req.CurrentPrice)
	c.JSON(http.StatusOK, adjustResp{
		Discounted:    adj.Discounted,
		Marked:        adj.Marked,
		FinalPrice:    adj.FinalPrice,
		CashValue:     adj.CashValue,
		DiscountValue: adj.DiscountValue,
	})
}

type quoteReq struct {
	BasePrice float64 `json:"base_price"`
	Items     int     `json:"items"`
}

type quoteResp struct {
	InstallmentPrice float64 `json:"installment_price"`
	CashPrice        float64 `json:"cash_price"`
	DebitPrice       float64 `json:"debit_price"`
	Labels           int     `json:"labels"`
}

func (s *Server) quotePrice(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.BasePrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_price must be positive"})
		return
	}
	if req.Items < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items must not be negative"})
		return
	}

	q := pricing.NewQuote(req.BasePrice, req.Items)
	c.JSON(http.StatusOK, quoteResp{
		InstallmentPrice: q.InstallmentPrice,
		CashPrice:        q.CashPrice,
		DebitPrice:       q.DebitPrice,
		Labels:           q.Labels,
	})
}

// Error mapping

func (s *Server) respondError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	var vErr *lifecycle.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotOrderOwner),
		errors.Is(err, domain.ErrAdminOnly),
		errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOrderNotPending):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func extractBearerToken(c *gin.Context) (string, error) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("invalid authorization format")
	}

	return parts[1], nil
}
