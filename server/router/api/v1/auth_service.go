package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Police-Data-Accessibility-Project/data-sources-app/server/auth"
	apierrors "github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/errors"
)

// SessionResponse describes the sign-in state of the session.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	User          *auth.User `json:"user,omitempty"`
	ReturnURL     string     `json:"return_url,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *APIV1Service) session() SessionResponse {
	response := SessionResponse{
		Authenticated: s.Auth.IsAuthenticated(s.now()),
		ReturnURL:     s.Auth.ReturnURL(),
	}
	if user := s.Auth.User(); user.ID != 0 {
		response.User = &user
	}
	return response
}

func bindCredentials(c echo.Context) (credentialsRequest, error) {
	var creds credentialsRequest
	if err := c.Bind(&creds); err != nil {
		return creds, apierrors.InvalidArgument("invalid request body")
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return creds, apierrors.InvalidArgument("email and password are required")
	}
	return creds, nil
}

// GetSession returns the current sign-in state.
func (s *APIV1Service) GetSession(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session())
}

// Login signs in. The response carries the return URL recorded by the route guard.
func (s *APIV1Service) Login(c echo.Context) error {
	creds, err := bindCredentials(c)
	if err != nil {
		return err
	}
	if err := s.Auth.Login(c.Request().Context(), creds.Email, creds.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.session())
}

// Signup registers an account and signs in with it.
func (s *APIV1Service) Signup(c echo.Context) error {
	creds, err := bindCredentials(c)
	if err != nil {
		return err
	}
	if err := s.Auth.Signup(c.Request().Context(), creds.Email, creds.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s.session())
}

// Refresh exchanges the refresh token for a new token pair.
func (s *APIV1Service) Refresh(c echo.Context) error {
	if err := s.Auth.RefreshAccessToken(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.session())
}

// Logout signs out.
func (s *APIV1Service) Logout(c echo.Context) error {
	s.Auth.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}
