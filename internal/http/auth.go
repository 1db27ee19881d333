package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service"
)

type signUpReq struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User          *domain.User            `json:"user"`
	Checkout      *service.CheckoutResult `json:"checkout,omitempty"`
	CheckoutError string                  `json:"checkout_error,omitempty"`
}

func toAuthResponse(res *service.AuthResult) authResponse {
	out := authResponse{User: res.User, Checkout: res.Checkout}
	if res.CheckoutError != nil {
		out.CheckoutError = errorMessage(mapErrorToStatus(res.CheckoutError), res.CheckoutError)
	}
	return out
}

// @Summary Sign up and sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param input body signUpReq true "Account"
// @Success 201 {object} authResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/signup [post]
func (s *Server) signUp(c *gin.Context) {
	var req signUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := s.Accounts.SignUp(c, currentSession(c), service.SignUpInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAuthResponse(res))
}

// @Summary Sign in
// @Description Includes the resumed checkout when the session tried to check out before login.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body signInReq true "Credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (s *Server) signIn(c *gin.Context) {
	var req signInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := s.Accounts.SignIn(c, currentSession(c), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuthResponse(res))
}

// @Summary Sign out
// @Description Drops the session, cart included, and starts a new one.
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) signOut(c *gin.Context) {
	fresh, err := s.Accounts.SignOut(c, currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	s.setSessionCookie(c, fresh)
	c.Status(http.StatusNoContent)
}

// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (s *Server) me(c *gin.Context) {
	u, err := s.Accounts.CurrentUser(c, currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if u == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, u)
}
