// Package handlers 提供HTTP API端点处理器
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/priceshield/v1/internal/api/http/types"
	"github.com/priceshield/v1/internal/core/catalog"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
)

// CatalogHandler 商品目录端点处理器
//
// 运营侧维护可投保商品清单的侧信道：
// - POST /api/v1/catalog/products 按归一化标识upsert
// - GET  /api/v1/catalog/products 列出全部商品
type CatalogHandler struct {
	store  *catalog.Store
	logger log.Logger
}

// NewCatalogHandler 创建商品目录处理器
func NewCatalogHandler(store *catalog.Store, logger log.Logger) *CatalogHandler {
	return &CatalogHandler{
		store:  store,
		logger: logger,
	}
}

// upsertProductRequest 商品upsert请求体
type upsertProductRequest struct {
	ID        string `json:"id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	BasePrice uint64 `json:"basePrice"`
}

// RegisterRoutes 注册商品目录路由
func (h *CatalogHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	group := v1.Group("/catalog")
	group.POST("/products", h.UpsertProduct)
	group.GET("/products", h.ListProducts)
}

// UpsertProduct 新增或覆盖商品
func (h *CatalogHandler) UpsertProduct(c *gin.Context) {
	var req upsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			types.ErrInvalidArgument, "请求体格式无效", err.Error()))
		return
	}

	product, err := h.store.Upsert(catalog.Product{
		ID:        req.ID,
		Name:      req.Name,
		BasePrice: req.BasePrice,
	}, time.Now().Unix())
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(
			types.ErrInvalidArgument, "商品登记失败", err.Error()))
		return
	}

	if h.logger != nil {
		h.logger.Infof("商品目录登记: id=%s basePrice=%d", product.ID, product.BasePrice)
	}
	c.JSON(http.StatusOK, types.NewDataResponse(product))
}

// ListProducts 列出全部商品
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(
			types.ErrInternal, "读取商品目录失败", err.Error()))
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	c.JSON(http.StatusOK, types.NewDataResponse(products))
}
