package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"snatch/internal/models"
	"snatch/internal/services"
)

// Handler holds service dependencies
type Handler struct {
	accounts *services.AccountService
	searches *services.SearchService
	billing  *services.BillingService
	claims   *services.ClaimService
	auth     *services.AuthService
}

// NewHandler creates a new API handler
func NewHandler(accounts *services.AccountService, searches *services.SearchService, billing *services.BillingService, claims *services.ClaimService, auth *services.AuthService) *Handler {
	return &Handler{
		accounts: accounts,
		searches: searches,
		billing:  billing,
		claims:   claims,
		auth:     auth,
	}
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.Health)

	api := r.Group("/api/v1")
	{
		// Authentication (no auth required)
		api.POST("/auth/signup", handler.Signup)
		api.POST("/auth/login", handler.Login)

		authed := api.Group("")
		authed.Use(AuthRequired(handler.auth))
		{
			authed.GET("/me", handler.Me)
			authed.GET("/stats", handler.GetStats)

			// Searches
			authed.POST("/search", handler.Search)
			authed.POST("/search/random", handler.SearchRandom)
			authed.GET("/searches", handler.ListSearches)

			// Billing
			authed.GET("/billing", handler.ListBilling)
			authed.POST("/billing/upgrade", handler.Upgrade)

			// Claims
			authed.GET("/claims", handler.ListClaims)
			authed.POST("/claims", handler.CreateClaim)
		}
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	Account models.Account `json:"account"`
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Signup creates an account and returns a session token
func (h *Handler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	account, err := h.accounts.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondSession(c, http.StatusCreated, account)
}

// Login handles account login
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	account, err := h.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondSession(c, http.StatusOK, account)
}

func (h *Handler) respondSession(c *gin.Context, status int, account models.Account) {
	token, err := h.auth.GenerateToken(account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(status, sessionResponse{Token: token, Account: account})
}

// Me returns the signed in account with its remaining searches
func (h *Handler) Me(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":            account,
		"remaining_searches": h.accounts.RemainingSearches(account),
	})
}

// GetStats returns aggregate search statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.accounts.GetAccountStats(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Search runs a name search for the given term
func (h *Handler) Search(c *gin.Context) {
	var req struct {
		Term string `json:"term"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	term := strings.TrimSpace(req.Term)
	if term == "" {
		respondError(c, services.ErrInvalidTerm)
		return
	}

	result, err := h.searches.Search(c.Request.Context(), accountID(c), term)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchRandom runs a search for a random seed term
func (h *Handler) SearchRandom(c *gin.Context) {
	result, err := h.searches.SearchRandom(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListSearches returns search history, newest first
func (h *Handler) ListSearches(c *gin.Context) {
	records, err := h.accounts.ListSearches(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []models.SearchRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// ListBilling returns billing history, newest first
func (h *Handler) ListBilling(c *gin.Context) {
	records, err := h.billing.ListBilling(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []models.BillingRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Upgrade moves the account to a paid plan
func (h *Handler) Upgrade(c *gin.Context) {
	var req struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan is required"})
		return
	}

	plan, err := models.ParsePlan(req.Plan)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, record, err := h.billing.Upgrade(c.Request.Context(), accountID(c), plan)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": account,
		"billing": record,
	})
}

// ListClaims returns the names the account has claimed
func (h *Handler) ListClaims(c *gin.Context) {
	claims, err := h.claims.ListClaims(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if claims == nil {
		claims = []models.Claim{}
	}
	c.JSON(http.StatusOK, claims)
}

// CreateClaim claims a name for the account
func (h *Handler) CreateClaim(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claim, err := h.claims.Claim(c.Request.Context(), accountID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, claim)
}
