package server

import (
	stderrors "errors"
	"net/http"
	"net/url"

	"branchkit/internal/errors"
	"branchkit/internal/validation"
	"branchkit/internal/vault"

	"github.com/labstack/echo/v4"
)

// credentialKey returns the unescaped :key parameter. Keys derived from
// remote URLs contain slashes, so clients send them percent-encoded.
func credentialKey(c echo.Context) (string, error) {
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil {
		return "", errors.BadRequest("Invalid credential key", err.Error())
	}
	if err := validation.CredentialKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// handleStoreCredentials godoc
// @Summary Store credentials
// @Tags credentials
// @Accept json
// @Produce json
// @Param key path string true "Credential key"
// @Param request body vault.Credentials true "Credentials"
// @Success 200 {object} SuccessResponse
// @Router /credentials/{key} [post]
func (s *Server) handleStoreCredentials(c echo.Context) error {
	key, err := credentialKey(c)
	if err != nil {
		return err
	}
	var creds vault.Credentials
	if err := c.Bind(&creds); err != nil {
		return errors.BadRequest("Invalid credentials", err.Error())
	}

	if err := s.creds.Store(key, creds); err != nil {
		return errors.ToHTTPError(errors.CredentialStoreFailed(key, err))
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Credentials stored"})
}

// handleGetCredentials godoc
// @Summary Get credentials
// @Tags credentials
// @Produce json
// @Param key path string true "Credential key"
// @Success 200 {object} vault.Credentials
// @Failure 404 {object} errors.HTTPErrorResponse
// @Router /credentials/{key} [get]
func (s *Server) handleGetCredentials(c echo.Context) error {
	key, err := credentialKey(c)
	if err != nil {
		return err
	}

	creds, err := s.creds.Get(key)
	if err != nil {
		return errors.ToHTTPError(credentialError(key, err))
	}
	return c.JSON(http.StatusOK, creds)
}

// handleDeleteCredentials godoc
// @Summary Delete credentials
// @Tags credentials
// @Produce json
// @Param key path string true "Credential key"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} errors.HTTPErrorResponse
// @Router /credentials/{key} [delete]
func (s *Server) handleDeleteCredentials(c echo.Context) error {
	key, err := credentialKey(c)
	if err != nil {
		return err
	}

	if err := s.creds.Delete(key); err != nil {
		return errors.ToHTTPError(credentialError(key, err))
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Credentials deleted"})
}

// handleCredentialsExist godoc
// @Summary Check for credentials
// @Tags credentials
// @Produce json
// @Param key path string true "Credential key"
// @Success 200 {object} ExistsResponse
// @Router /credentials/{key}/exists [get]
func (s *Server) handleCredentialsExist(c echo.Context) error {
	key, err := credentialKey(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ExistsResponse{Exists: s.creds.Exists(key)})
}

func credentialError(key string, err error) error {
	if stderrors.Is(err, vault.ErrNotFound) {
		return errors.CredentialNotFound(key, err)
	}
	return errors.CredentialStoreFailed(key, err)
}
