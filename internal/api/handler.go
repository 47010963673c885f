package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"perfume-admin/internal/models"
	"perfume-admin/internal/service"
	"perfume-admin/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resetter restarts a refresh countdown
type Resetter interface {
	Reset()
}

// Services are the collaborators behind the HTTP handlers
type Services struct {
	Auth      *service.AuthService
	Orders    *service.OrderService
	Dashboard *service.DashboardService
	Products  *service.ProductService
	Users     *service.UserService
	Countdown Resetter
	Ready     func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	svc Services
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.login)

		authed := v1.Group("", h.requireSession)
		authed.POST("/auth/logout", h.logout)
		authed.GET("/auth/me", h.me)

		authed.GET("/dashboard", h.getDashboard)
		authed.POST("/dashboard/refresh", h.refreshDashboard)

		authed.GET("/orders", h.listOrders)
		authed.PUT("/orders/:id/status", h.updateOrderStatus)

		authed.GET("/products", h.listProducts)
		authed.POST("/products", h.createProduct)
		authed.PUT("/products/:id", h.updateProduct)
		authed.DELETE("/products/:id", h.deleteProduct)

		authed.GET("/users", h.listUsers)
		authed.POST("/users", h.createUser)
		authed.PUT("/users/:id", h.updateUser)
		authed.PATCH("/users/:id/status", h.setUserStatus)
		authed.DELETE("/users/:id", h.deleteUser)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports whether the local cache is reachable
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.svc.Ready != nil {
		if err := h.svc.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) requireSession(c *gin.Context) {
	if _, err := h.svc.Auth.Me(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	c.Next()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	admin, err := h.svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, admin, "")
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Auth.Logout(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, nil, "")
}

func (h *Handler) me(c *gin.Context) {
	admin, err := h.svc.Auth.Me(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, admin, "")
}

func (h *Handler) getDashboard(c *gin.Context) {
	d := h.svc.Dashboard.Current(c.Request.Context())
	ok(c, http.StatusOK, d, d.Notice)
}

func (h *Handler) refreshDashboard(c *gin.Context) {
	if h.svc.Countdown != nil {
		h.svc.Countdown.Reset()
	}
	d := h.svc.Dashboard.Refresh(c.Request.Context())
	ok(c, http.StatusOK, d, d.Notice)
}

// listOrders returns the current order view; refresh=true forces a fetch cycle
func (h *Handler) listOrders(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		list *service.OrderList
		err  error
	)
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		list, err = h.svc.Orders.Refresh(ctx)
	} else {
		list, err = h.svc.Orders.Current(ctx)
	}
	if err != nil {
		// nothing readable anywhere: an empty view with a notice, not an error page
		ok(c, http.StatusOK, service.OrderList{Orders: []models.NormalizedOrder{}, Source: service.SourceNone}, service.NoticeCachedData)
		return
	}

	list.Orders = service.FilterOrders(list.Orders, c.Query("status"), c.Query("q"))
	ok(c, http.StatusOK, list, list.Notice)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res, res.Notice)
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.svc.Products.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, products, "")
}

// createProduct accepts a multipart form with an optional "image" file, or JSON
func (h *Handler) createProduct(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBind(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid product form")
		return
	}

	image, err := formImage(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid image upload")
		return
	}

	p, err := h.svc.Products.Create(c.Request.Context(), in, image)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, p, "")
}

func formImage(c *gin.Context) (*models.ImageUpload, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &models.ImageUpload{Filename: header.Filename, Content: content}, nil
}

func (h *Handler) updateProduct(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Products.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p, "")
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.svc.Products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, nil, "")
}

func (h *Handler) listUsers(c *gin.Context) {
	list, err := h.svc.Users.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, list, list.Notice)
}

func (h *Handler) createUser(c *gin.Context) {
	var in models.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.svc.Users.Create(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u, "")
}

func (h *Handler) updateUser(c *gin.Context) {
	var in models.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.svc.Users.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u, "")
}

func (h *Handler) setUserStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.svc.Users.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u, "")
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.svc.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, nil, "")
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
