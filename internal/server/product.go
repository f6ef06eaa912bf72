package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
)

type searchProductsQuery struct {
	Limit       string `form:"limit"`
	Page        string `form:"page"`
	Fields      string `form:"fields"`
	Match       string `form:"match"`
	CategoryIDs string `form:"category_ids"`
	PriceRange  string `form:"price-range"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req productdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)

	resp, err := s.productSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "product created", "id": resp.ID})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	var req productdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.productSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) DeleteProduct(c *gin.Context) {
	if err := s.productSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) GetProductByID(c *gin.Context) {
	resp, err := s.productSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) SearchProducts(c *gin.Context) {
	var query searchProductsQuery
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
	categoryIDs, err := parseIDList(query.CategoryIDs)
	if err != nil {
		AbortWithError(c, newValidationError("category_ids", "invalid_category_ids", "category_ids must be a comma separated list of ids"))
		return
	}
	options, err := parseOptionFilters(c.QueryMap("option"))
	if err != nil {
		AbortWithError(c, newValidationError("option", "invalid_option", "option filters must be keyed by option id"))
		return
	}

	resp, err := s.productSvc.Search(c.Request.Context(), productdomain.SearchRequest{
		Limit:       limit,
		Page:        page,
		Fields:      parseFields(query.Fields),
		Match:       strings.TrimSpace(query.Match),
		CategoryIDs: categoryIDs,
		PriceRange:  strings.TrimSpace(query.PriceRange),
		Options:     options,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ServeProductImage streams stored image bytes, or redirects when the image lives at an external path.
func (s *Server) ServeProductImage(c *gin.Context) {
	content, err := s.productSvc.GetImage(
		c.Request.Context(),
		strings.TrimSpace(c.Param("slug")),
		strings.TrimSpace(c.Param("imageId")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if content.RedirectURL != "" {
		c.Redirect(http.StatusFound, content.RedirectURL)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, content.Type, content.Data)
}
