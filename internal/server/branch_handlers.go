package server

import (
	"net/http"
	"strconv"
	"strings"

	"branchkit/internal/branch"
	"branchkit/internal/errors"
	"branchkit/internal/logger"

	"github.com/labstack/echo/v4"
)

// handleListBranches godoc
// @Summary List local branches
// @Tags branches
// @Produce json
// @Param path query string true "Repository path"
// @Success 200 {array} git.Branch
// @Failure 404 {object} errors.HTTPErrorResponse
// @Router /branches [get]
func (s *Server) handleListBranches(c echo.Context) error {
	path := c.QueryParam("path")
	if err := requirePath(path); err != nil {
		return err
	}

	branches, err := s.svc.ListBranches(c.Request().Context(), path)
	if err != nil {
		return errors.ToHTTPError(classify(err, path))
	}
	return c.JSON(http.StatusOK, branches)
}

// handleCreateBranch godoc
// @Summary Create a generated branch
// @Description Generates a name from the pattern and creates it. An existing branch returns created=false.
// @Tags branches
// @Accept json
// @Produce json
// @Param request body CreateBranchRequest true "Create request"
// @Success 200 {object} CreateBranchResponse
// @Failure 400 {object} errors.HTTPErrorResponse
// @Router /branches [post]
func (s *Server) handleCreateBranch(c echo.Context) error {
	var req CreateBranchRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body", err.Error())
	}
	if err := requirePath(req.Path); err != nil {
		return err
	}
	if err := requireFeatureType(req.Pattern); err != nil {
		return err
	}

	result, err := s.svc.CreateBranch(c.Request().Context(), req.Path, req.CreateBranchRequest)
	if err != nil && !result.Created {
		return errors.ToHTTPError(classify(err, req.Path))
	}

	resp := CreateBranchResponse{CreateResult: result}
	if err != nil {
		logger.GetLogger(c).WithError(err).WithField("branch", result.BranchName).Warn("Branch created without history entry")
		resp.Warning = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// requireFeatureType rejects patterns without a known feature type; the
// generator would otherwise emit a name ending in a separator.
func requireFeatureType(p branch.Pattern) error {
	if !p.FeatureType.Valid() {
		return errors.InvalidInput("feature_type", "one of feature, bugfix, hotfix, experiment, refactor or docs")
	}
	return nil
}

// handleGenerateBranchName godoc
// @Summary Generate a branch name
// @Tags branches
// @Accept json
// @Produce json
// @Param request body branch.Pattern true "Pattern"
// @Success 200 {object} BranchNameResponse
// @Failure 400 {object} errors.HTTPErrorResponse
// @Router /branches/generate [post]
func (s *Server) handleGenerateBranchName(c echo.Context) error {
	var p branch.Pattern
	if err := c.Bind(&p); err != nil {
		return errors.BadRequest("Invalid pattern", err.Error())
	}
	if err := requireFeatureType(p); err != nil {
		return err
	}

	name, err := s.svc.GenerateBranchName(p)
	if err != nil {
		return errors.ToHTTPError(classify(err, ""))
	}
	return c.JSON(http.StatusOK, BranchNameResponse{BranchName: name})
}

func parseFeatureType(raw string) (*branch.FeatureType, error) {
	if raw == "" {
		return nil, nil
	}
	ft, err := branch.ParseFeatureType(raw)
	if err != nil {
		return nil, errors.BadRequest("Invalid feature type", err.Error())
	}
	return &ft, nil
}

// handleSuggestPattern godoc
// @Summary Suggest a branch pattern
// @Tags branches
// @Produce json
// @Param workspace query string true "Workspace name"
// @Param feature_type query string false "Feature type"
// @Success 200 {object} branch.Pattern
// @Router /branches/suggest [get]
func (s *Server) handleSuggestPattern(c echo.Context) error {
	workspace := c.QueryParam("workspace")
	if strings.TrimSpace(workspace) == "" {
		return errors.BadRequest("Workspace name is required", "")
	}
	ft, err := parseFeatureType(c.QueryParam("feature_type"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.svc.SuggestBranchPattern(workspace, ft))
}

// handleSuggestions godoc
// @Summary Suggested branch names
// @Description One candidate per allowed feature type
// @Tags branches
// @Produce json
// @Param workspace query string true "Workspace name"
// @Success 200 {object} SuggestionsResponse
// @Router /branches/suggestions [get]
func (s *Server) handleSuggestions(c echo.Context) error {
	workspace := c.QueryParam("workspace")
	if strings.TrimSpace(workspace) == "" {
		return errors.BadRequest("Workspace name is required", "")
	}
	return c.JSON(http.StatusOK, SuggestionsResponse{Suggestions: s.svc.GetSuggestedBranches(workspace)})
}

// handleHistory godoc
// @Summary Branch creation history
// @Tags branches
// @Produce json
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} HistoryResponse
// @Router /branches/history [get]
func (s *Server) handleHistory(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return errors.BadRequest("Invalid limit", "limit must be a non-negative integer")
		}
		limit = n
	}

	entries, err := s.svc.GetBranchHistory(c.Request().Context(), limit)
	if err != nil {
		return errors.ToHTTPError(errors.DatabaseQueryError("list branch history", err))
	}
	return c.JSON(http.StatusOK, HistoryResponse{Entries: entries, Total: len(entries)})
}

// handleGetBranchConfig godoc
// @Summary Active branch config
// @Tags branches
// @Produce json
// @Success 200 {object} BranchConfigResponse
// @Router /branches/config [get]
func (s *Server) handleGetBranchConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, BranchConfigResponse{Config: s.svc.BranchConfig()})
}

// handleUpdateBranchConfig godoc
// @Summary Replace the branch config
// @Tags branches
// @Accept json
// @Produce json
// @Param request body branch.Config true "New config"
// @Success 200 {object} BranchConfigResponse
// @Failure 400 {object} errors.HTTPErrorResponse
// @Router /branches/config [put]
func (s *Server) handleUpdateBranchConfig(c echo.Context) error {
	var cfg branch.Config
	if err := c.Bind(&cfg); err != nil {
		return errors.BadRequest("Invalid branch config", err.Error())
	}

	if err := s.svc.UpdateConfig(c.Request().Context(), cfg); err != nil {
		return errors.ToHTTPError(classify(err, ""))
	}
	return c.JSON(http.StatusOK, BranchConfigResponse{Config: s.svc.BranchConfig()})
}
