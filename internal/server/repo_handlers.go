package server

import (
	"net/http"

	"branchkit/internal/errors"
	"branchkit/internal/validation"

	"github.com/labstack/echo/v4"
)

// requirePath rejects empty and relative paths. The server has no meaningful
// working directory.
func requirePath(path string) error {
	_, err := validation.AbsolutePath(path)
	return err
}

// handleClone godoc
// @Summary Clone a repository
// @Description Clone url into path. Rejected credentials come back as success=false.
// @Tags repositories
// @Accept json
// @Produce json
// @Param request body CloneRequest true "Clone request"
// @Success 200 {object} git.CloneResult
// @Failure 400 {object} errors.HTTPErrorResponse
// @Router /repos/clone [post]
func (s *Server) handleClone(c echo.Context) error {
	var req CloneRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body", err.Error())
	}
	if err := validation.RemoteURL(req.URL); err != nil {
		return err
	}
	if err := requirePath(req.Path); err != nil {
		return err
	}

	result, err := s.svc.CloneRepository(c.Request().Context(), req.URL, req.Path, req.Credentials, nil)
	if err != nil {
		return errors.ToHTTPError(classify(err, req.Path))
	}
	return c.JSON(http.StatusOK, result)
}

// handleInit godoc
// @Summary Initialize a repository
// @Tags repositories
// @Accept json
// @Produce json
// @Param request body PathRequest true "Repository path"
// @Success 200 {object} git.CloneResult
// @Failure 400 {object} errors.HTTPErrorResponse
// @Router /repos/init [post]
func (s *Server) handleInit(c echo.Context) error {
	var req PathRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body", err.Error())
	}
	if err := requirePath(req.Path); err != nil {
		return err
	}

	result, err := s.svc.InitializeRepository(c.Request().Context(), req.Path)
	if err != nil {
		return errors.ToHTTPError(classify(err, req.Path))
	}
	return c.JSON(http.StatusOK, result)
}

// handleStatus godoc
// @Summary Repository status
// @Description Current branch and staged, modified and untracked paths
// @Tags repositories
// @Produce json
// @Param path query string true "Repository path"
// @Success 200 {object} git.Status
// @Failure 404 {object} errors.HTTPErrorResponse
// @Failure 409 {object} errors.HTTPErrorResponse
// @Router /repos/status [get]
func (s *Server) handleStatus(c echo.Context) error {
	path := c.QueryParam("path")
	if err := requirePath(path); err != nil {
		return err
	}

	status, err := s.svc.RepositoryStatus(c.Request().Context(), path)
	if err != nil {
		return errors.ToHTTPError(classify(err, path))
	}
	return c.JSON(http.StatusOK, status)
}

// handleRepositoryExists godoc
// @Summary Check for a repository
// @Tags repositories
// @Produce json
// @Param path query string true "Repository path"
// @Success 200 {object} ExistsResponse
// @Router /repos/exists [get]
func (s *Server) handleRepositoryExists(c echo.Context) error {
	path := c.QueryParam("path")
	if err := requirePath(path); err != nil {
		return err
	}

	exists, err := s.svc.RepositoryExists(c.Request().Context(), path)
	if err != nil {
		return errors.ToHTTPError(classify(err, path))
	}
	return c.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}

// handleAddAll godoc
// @Summary Stage all changes
// @Tags repositories
// @Accept json
// @Produce json
// @Param request body PathRequest true "Repository path"
// @Success 200 {object} git.CloneResult
// @Router /repos/add [post]
func (s *Server) handleAddAll(c echo.Context) error {
	var req PathRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body", err.Error())
	}
	if err := requirePath(req.Path); err != nil {
		return err
	}

	result, err := s.svc.AddAll(c.Request().Context(), req.Path)
	if err != nil {
		return errors.ToHTTPError(classify(err, req.Path))
	}
	return c.JSON(http.StatusOK, result)
}

// handleCommit godoc
// @Summary Commit the index
// @Tags repositories
// @Accept json
// @Produce json
// @Param request body CommitRequest true "Commit request"
// @Success 200 {object} git.CloneResult
// @Router /repos/commit [post]
func (s *Server) handleCommit(c echo.Context) error {
	var req CommitRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body", err.Error())
	}
	if err := requirePath(req.Path); err != nil {
		return err
	}
	if err := validation.NonEmptyString("message", req.Message); err != nil {
		return err
	}

	result, err := s.svc.Commit(c.Request().Context(), req.Path, req.Message)
	if err != nil {
		return errors.ToHTTPError(classify(err, req.Path))
	}
	return c.JSON(http.StatusOK, result)
}
