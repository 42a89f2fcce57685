package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wastemarket/mobile/internal/models"
)

func (h HandlerSet) ListProducts(c *gin.Context) {
	filters := models.ProductFilters{
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Status:   models.ProductStatus(c.Query("status")),
		Location: c.Query("location"),
	}
	var ok bool
	if filters.MinPrice, ok = queryDecimal(c, "minPrice"); !ok {
		return
	}
	if filters.MaxPrice, ok = queryDecimal(c, "maxPrice"); !ok {
		return
	}

	products, page, err := h.catalog.ListProducts(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductsResponse{Success: true, Products: nonNil(products), Pagination: page})
}

func (h HandlerSet) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Product: &product})
}

func (h HandlerSet) CreateProduct(c *gin.Context) {
	var req models.CreateProductData
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Message: "Product created successfully", Product: &product})
}

func (h HandlerSet) UpdateProduct(c *gin.Context) {
	var req models.UpdateProductData
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Message: "Product updated successfully", Product: &product})
}

func (h HandlerSet) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Product deleted successfully"})
}

func (h HandlerSet) MyListings(c *gin.Context) {
	products, page, err := h.catalog.MyListings(c.Request.Context(), currentUser(c), listParams(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ListingsResponse{Success: true, Products: nonNil(products), Pagination: page})
}

func (h HandlerSet) Categories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CategoriesResponse{Success: true, Categories: nonNil(categories)})
}

// queryInt reads a paging parameter. Garbage reads as zero, which the
// services replace with their defaults.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

func queryDecimal(c *gin.Context, key string) (*decimal.Decimal, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Message: "Invalid price filter",
			Errors:  []models.FieldError{{Field: key, Message: "Must be a number"}},
		})
		return nil, false
	}
	return &d, true
}

func listParams(c *gin.Context) models.ListParams {
	return models.ListParams{
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
		Status: c.Query("status"),
	}
}

// nonNil keeps empty pages encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
