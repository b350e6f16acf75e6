package webapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CompilationErrror/library-auth/internal/domain/auth"
	"github.com/CompilationErrror/library-auth/internal/domain/auth/model"
	perrors "github.com/CompilationErrror/library-auth/internal/platform/errors"
	httptransport "github.com/CompilationErrror/library-auth/internal/transport/http"
)

const refreshCookieName = "refreshToken"

// Service is the HTTP binding of the session core.
type Service struct {
	sessions *auth.Service
	logger   model.Logger
}

// NewService creates the authentication HTTP service.
func NewService(sessions *auth.Service, logger model.Logger) (*Service, error) {
	if sessions == nil {
		return nil, perrors.New(perrors.KindConfig, "webapi.new", "session service is required")
	}
	if logger == nil {
		return nil, perrors.New(perrors.KindConfig, "webapi.new", "logger is required")
	}
	return &Service{
		sessions: sessions,
		logger:   logger,
	}, nil
}

// Register mounts the authentication routes.
func (s *Service) Register(router *gin.RouterGroup) {
	group := router.Group("/Authentication")
	group.POST("/Register", s.handleRegister)
	group.POST("/Login", s.handleLogin)
	group.POST("/RefreshToken", s.handleRefreshToken)
	group.POST("/Logout", s.handleLogout)
	group.POST("/ValidateToken", s.handleValidateToken)

	secured := group.Group("")
	secured.Use(AuthMiddleware(s.sessions))
	secured.GET("/Me", s.handleMe)
	secured.POST("/ChangePassword", s.handleChangePassword)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// tokenResponse is the body of every token-issuing endpoint. The refresh
// token travels only in the HTTP-only cookie, never in the body.
type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (s *Service) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid registration payload")
		return
	}

	pair, err := s.sessions.Register(c.Request.Context(), auth.RegisterRequest{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}, clientMetadata(c))
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	s.setRefreshCookie(c, pair)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.ExpiresAt,
	})
}

func (s *Service) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid login payload")
		return
	}

	pair, err := s.sessions.Login(c.Request.Context(), req.Username, req.Password, clientMetadata(c))
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	s.setRefreshCookie(c, pair)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.ExpiresAt,
	})
}

func (s *Service) handleRefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		httptransport.RespondError(c, http.StatusUnauthorized, "refresh token cookie missing")
		return
	}

	pair, err := s.sessions.Refresh(c.Request.Context(), refreshToken, clientMetadata(c))
	if err != nil {
		if httptransport.StatusFromError(err) == http.StatusUnauthorized {
			s.clearRefreshCookie(c)
		}
		s.respondFailure(c, err)
		return
	}

	s.setRefreshCookie(c, pair)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.ExpiresAt,
	})
}

func (s *Service) handleLogout(c *gin.Context) {
	accessToken := bearerToken(c)
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil {
		refreshToken = ""
	}

	if err := s.sessions.Logout(c.Request.Context(), accessToken, refreshToken); err != nil {
		s.respondFailure(c, err)
		return
	}

	s.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

// handleValidateToken accepts the token either as a JSON string or as a
// raw text body and answers with a bare boolean.
func (s *Service) handleValidateToken(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTokenBodyBytes))
	if err != nil {
		c.JSON(http.StatusOK, false)
		return
	}

	token := strings.TrimSpace(string(body))
	var decoded string
	if json.Unmarshal(body, &decoded) == nil {
		token = decoded
	}

	c.JSON(http.StatusOK, s.sessions.ValidateAccess(c.Request.Context(), token))
}

const maxTokenBodyBytes = 64 << 10

func (s *Service) handleMe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		httptransport.RespondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       claims.Subject,
		"username": claims.Username,
		"email":    claims.Email,
		"role":     claims.Role,
	})
}

func (s *Service) handleChangePassword(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		httptransport.RespondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid change password payload")
		return
	}

	err := s.sessions.ChangePassword(c.Request.Context(), claims.Subject, req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) respondFailure(c *gin.Context, err error) {
	status := httptransport.StatusFromError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("authentication request failed: %v", err)
	}
	httptransport.RespondError(c, status, httptransport.MessageFromError(err))
}

// setRefreshCookie stores the rotated refresh token in an HTTP-only,
// secure, same-site-strict cookie scoped to the whole API.
func (s *Service) setRefreshCookie(c *gin.Context, pair *model.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	maxAge := int(time.Until(pair.ExpiresAt).Seconds())
	c.SetCookie(refreshCookieName, pair.RefreshToken, maxAge, "/", "", true, true)
}

func (s *Service) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", true, true)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	return header
}

func clientMetadata(c *gin.Context) map[string]string {
	meta := map[string]string{
		"ip": c.ClientIP(),
	}
	if ua := c.Request.UserAgent(); ua != "" {
		meta["user_agent"] = ua
	}
	return meta
}
