package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	categorydomain "github.com/smallbiznis/storefront/internal/category/domain"
)

type searchCategoriesQuery struct {
	Limit     string `form:"limit"`
	Page      string `form:"page"`
	Fields    string `form:"fields"`
	UseInMenu string `form:"use_in_menu"`
}

func (s *Server) SearchCategories(c *gin.Context) {
	var query searchCategoriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	limit, err := parseOptionalInt(query.Limit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be -1 or a positive integer"))
		return
	}
	page, err := parseOptionalInt(query.Page)
	if err != nil {
		AbortWithError(c, newValidationError("page", "invalid_page", "page must be a positive integer"))
		return
	}
	useInMenu, err := parseOptionalBool(query.UseInMenu)
	if err != nil {
		AbortWithError(c, newValidationError("use_in_menu", "invalid_use_in_menu", "invalid use_in_menu"))
		return
	}

	resp, err := s.categorySvc.Search(c.Request.Context(), categorydomain.SearchRequest{
		Limit:     limit,
		Page:      page,
		Fields:    parseFields(query.Fields),
		UseInMenu: useInMenu,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetCategoryByID(c *gin.Context) {
	resp, err := s.categorySvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateCategory(c *gin.Context) {
	var req categorydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.categorySvc.Create(c.Request.Context(), categorydomain.CreateRequest{
		Name:      strings.TrimSpace(req.Name),
		Slug:      strings.TrimSpace(req.Slug),
		UseInMenu: req.UseInMenu,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateCategory(c *gin.Context) {
	var req categorydomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.categorySvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), categorydomain.UpdateRequest{
		Name:      strings.TrimSpace(req.Name),
		Slug:      strings.TrimSpace(req.Slug),
		UseInMenu: req.UseInMenu,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) DeleteCategory(c *gin.Context) {
	if err := s.categorySvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
