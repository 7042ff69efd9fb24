package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/dmitrijs2005/marketauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type registerRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// loginRequest accepts JSON as well as an OAuth2 password form.
type loginRequest struct {
	UserName string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type loginResponse struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	TokenType string `json:"token_type"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type meResponse struct {
	ID           string `json:"id"`
	UserName     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	RegisteredOn string `json:"registered_on"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "Malformed request body.", common.Code(common.ErrValidation), nil)
		return
	}

	user, err := s.users.Register(c.Request.Context(), services.RegisterInput{
		UserName: req.UserName,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		s.respondError(c, services.FlowRegister, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "username", user.UserName)
	c.JSON(http.StatusOK, detailResponse{Detail: "Successfully registered in."})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "Malformed request body.", common.Code(common.ErrValidation), nil)
		return
	}

	pair, err := s.users.Login(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		s.respondError(c, services.FlowLogin, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Access:    pair.AccessToken,
		Refresh:   pair.RefreshToken,
		TokenType: pair.TokenType,
	})
}

func (s *Server) logout(c *gin.Context) {
	token, ok := refreshTokenFrom(c)
	if !ok {
		return
	}

	if err := s.users.Logout(c.Request.Context(), token); err != nil {
		s.respondError(c, services.FlowLogout, err)
		return
	}

	c.JSON(http.StatusOK, detailResponse{Detail: "Successfully logged out."})
}

func (s *Server) refresh(c *gin.Context) {
	token, ok := refreshTokenFrom(c)
	if !ok {
		return
	}

	grant, err := s.users.RefreshToken(c.Request.Context(), token)
	if err != nil {
		s.respondError(c, services.FlowRefresh, err)
		return
	}

	c.JSON(http.StatusOK, refreshResponse{AccessToken: grant.AccessToken, TokenType: grant.TokenType})
}

func (s *Server) me(c *gin.Context) {
	user, err := s.users.WhoAmI(c.Request.Context(), c.GetString(accessTokenKey))
	if err != nil {
		s.respondError(c, services.FlowWhoAmI, err)
		return
	}

	c.JSON(http.StatusOK, meResponse{
		ID:           user.ID,
		UserName:     user.UserName,
		Email:        user.Email,
		Role:         string(user.Role),
		RegisteredOn: user.RegisteredOn.Format(time.DateOnly),
	})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyz(c *gin.Context) {
	if err := s.ready(c.Request.Context()); err != nil {
		s.logger.Warn(c.Request.Context(), "not ready", "error", err.Error())
		writeError(c, http.StatusServiceUnavailable, "Storage unavailable, try again later.", common.Code(common.ErrStorageUnavailable), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// refreshTokenFrom reads refresh_token from the query string, falling back
// to a JSON body. A missing token is passed on as empty and rejected by the
// ledger lookup.
func refreshTokenFrom(c *gin.Context) (string, bool) {
	if t := c.Query("refresh_token"); t != "" {
		return t, true
	}
	if c.Request.ContentLength == 0 {
		return "", true
	}

	var req refreshTokenRequest
	if err := c.ShouldBindWith(&req, binding.JSON); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "Malformed request body.", common.Code(common.ErrValidation), nil)
		return "", false
	}
	return req.RefreshToken, true
}
