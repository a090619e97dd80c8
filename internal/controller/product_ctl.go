package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202608/internal/api/dto"
	"mall_dev_v1_202608/internal/service"
)

type ProductController struct {
	productService *service.ProductService
	stockService   *service.StockService
}

func NewProductController(productService *service.ProductService, stockService *service.StockService) *ProductController {
	return &ProductController{
		productService: productService,
		stockService:   stockService,
	}
}

// parseID 路径参数里的商品 ID
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的商品ID"})
		return 0, false
	}
	return id, true
}

// ==================== 查询接口 ====================

// List 获取商品列表
// GET /api/products
func (ctrl *ProductController) List(c *gin.Context) {
	var req dto.ProductListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	products, total, err := ctrl.productService.ListProducts(c.Request.Context(), &req)
	if err != nil {
		replyError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProductListResp{
		Code:     0,
		Message:  "success",
		Data:     products,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// Get 获取商品详情（带浏览计数副作用）
// GET /api/products/:id
func (ctrl *ProductController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, product)
}

// ==================== 写接口 ====================

// Create 创建商品
// POST /api/products
func (ctrl *ProductController) Create(c *gin.Context) {
	var req dto.CreateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, product)
}

// Update 更新商品
// PUT /api/products/:id
func (ctrl *ProductController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, product)
}

// Delete 软删除商品
// DELETE /api/products/:id
func (ctrl *ProductController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, nil)
}

// UpdateStatus 状态变更
// PUT /api/products/:id/status
func (ctrl *ProductController) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	if err := ctrl.productService.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, nil)
}

// BatchUpdateStatus 批量状态变更
// PUT /api/products/batch-status
func (ctrl *ProductController) BatchUpdateStatus(c *gin.Context) {
	var req dto.BatchUpdateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	if err := ctrl.productService.BatchUpdateStatus(c.Request.Context(), req.IDs, req.Status); err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, nil)
}

// ==================== 库存接口 ====================

// DeductStock 扣减库存
// POST /api/products/:id/stock/deduct
func (ctrl *ProductController) DeductStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.StockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	if err := ctrl.stockService.DeductStock(c.Request.Context(), id, req.Quantity); err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, nil)
}

// RestoreStock 回补库存
// POST /api/products/:id/stock/restore
func (ctrl *ProductController) RestoreStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.StockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	if err := ctrl.stockService.RestoreStock(c.Request.Context(), id, req.Quantity); err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, nil)
}

// SetStock 覆写库存
// PUT /api/products/:id/stock
func (ctrl *ProductController) SetStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Stock int `json:"stock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	if err := ctrl.stockService.UpdateStock(c.Request.Context(), id, req.Stock); err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, nil)
}
