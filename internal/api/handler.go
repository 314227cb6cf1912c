package api

import (
	"net/http"
	"strconv"
	"time"

	"bakery-erp/internal/models"
	"bakery-erp/internal/service"
	"bakery-erp/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	syncService    *service.SyncService
	costingService *service.CostingService
	plannerService *service.PlannerService
	orderService   *service.OrderService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	syncService *service.SyncService,
	costingService *service.CostingService,
	plannerService *service.PlannerService,
	orderService *service.OrderService,
) *Handler {
	return &Handler{
		syncService:    syncService,
		costingService: costingService,
		plannerService: plannerService,
		orderService:   orderService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/inventory/sync", h.syncInventory)
		v1.GET("/inventory/sync/last", h.lastSyncReport)
		v1.POST("/inventory/cleanup", h.cleanupDuplicates)
		v1.GET("/inventory", h.listInventory)
		v1.GET("/inventory/stats", h.inventoryStats)

		v1.POST("/customers/sync", h.syncCustomers)
		v1.GET("/customers", h.listCustomers)

		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/submit", h.submitOrder)

		v1.POST("/recipes", h.createRecipe)
		v1.GET("/recipes", h.listRecipes)
		v1.GET("/recipes/:id/cost", h.recipeCost)
		v1.GET("/recipes/:id/cost-impact", h.recipeCostImpact)

		v1.POST("/production/analyze", h.analyzeDemand)
		v1.POST("/production/requirements", h.saveRequirements)
		v1.POST("/production/requirements/:id/override", h.overrideRequirement)
		v1.POST("/production/orders", h.createProductionOrders)
		v1.GET("/production/materials", h.materialsRequired)
		v1.POST("/production-orders/:id/submit", h.submitProductionOrder)
		v1.POST("/production-orders/:id/actuals", h.recordActuals)
		v1.POST("/production-orders/:id/status", h.updateProductionStatus)
		v1.GET("/production-orders/:id/financials", h.orderFinancials)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// syncInventory triggers a full inventory sync. The report is always returned
// with 200; its status field carries success, warning or error.
func (h *Handler) syncInventory(c *gin.Context) {
	report := h.syncService.SyncInventory(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

// syncCustomers triggers a customer sync
func (h *Handler) syncCustomers(c *gin.Context) {
	report := h.syncService.SyncCustomers(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

// lastSyncReport returns the cached most recent sync report
func (h *Handler) lastSyncReport(c *gin.Context) {
	report, err := h.syncService.LastSyncReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load last sync report",
			"details": err.Error(),
		})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No sync has run yet",
		})
		return
	}
	c.JSON(http.StatusOK, report)
}

// cleanupDuplicates removes duplicate inventory rows
func (h *Handler) cleanupDuplicates(c *gin.Context) {
	deleted, err := h.syncService.CleanupDuplicates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Cleanup failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// listInventory lists inventory items, optionally filtered by category
func (h *Handler) listInventory(c *gin.Context) {
	items, err := h.syncService.ListInventory(c.Request.Context(), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list inventory",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": items,
	})
}

// inventoryStats returns per-category inventory counts
func (h *Handler) inventoryStats(c *gin.Context) {
	counts, err := h.syncService.InventoryStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load inventory stats",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"category_counts": counts})
}

// createRecipe creates a recipe with its ingredients
func (h *Handler) createRecipe(c *gin.Context) {
	var req service.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	recipe, err := h.costingService.CreateRecipe(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create recipe",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// listRecipes lists all recipes
func (h *Handler) listRecipes(c *gin.Context) {
	recipes, err := h.costingService.ListRecipes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list recipes",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(recipes),
		"recipes": recipes,
	})
}

// recipeCost returns the live batch and unit cost of a recipe
func (h *Handler) recipeCost(c *gin.Context) {
	recipeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}

	total, ingredients, err := h.costingService.RecipeTotalCost(c.Request.Context(), recipeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Recipe not found",
			"details": err.Error(),
		})
		return
	}
	unitCost, err := h.costingService.RecipeUnitCost(c.Request.Context(), recipeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute unit cost",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe_id":   recipeID,
		"total_cost":  total,
		"unit_cost":   unitCost,
		"ingredients": ingredients,
	})
}

// recipeCostImpact returns the ledger-derived cost impact over a trailing
// window (default 30 days)
func (h *Handler) recipeCostImpact(c *gin.Context) {
	recipeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipe ID"})
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	impact, err := h.costingService.CostImpact(c.Request.Context(), recipeID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute cost impact",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, impact)
}

// listCustomers lists synced customers
func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.orderService.ListCustomers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list customers",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(customers),
		"customers": customers,
	})
}

// createOrder creates a customer order
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create order",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// getOrder returns an order with its line items
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, items, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// submitOrder posts an order to Manager.io as a sales order
func (h *Handler) submitOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	key, err := h.orderService.SubmitOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Submission failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":         orderID,
		"manager_order_id": key,
		"sync_status":      models.SyncStatusSynced,
	})
}

type analyzeDemandRequest struct {
	Date   string   `json:"date" binding:"required"`
	FGKeys []string `json:"fg_keys"`
}

// analyzeDemand aggregates pending orders into net production demand
func (h *Handler) analyzeDemand(c *gin.Context) {
	var req analyzeDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	items, err := h.plannerService.AnalyzeDemand(c.Request.Context(), date, req.FGKeys)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Demand analysis failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":  req.Date,
		"count": len(items),
		"items": items,
	})
}

type saveRequirementsRequest struct {
	Date    string              `json:"date" binding:"required"`
	ShiftID int64               `json:"shift_id"`
	Items   []models.DemandItem `json:"items" binding:"required,min=1"`
}

// saveRequirements persists analyzed demand as production requirements
func (h *Handler) saveRequirements(c *gin.Context) {
	var req saveRequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	if err := h.plannerService.SaveRequirements(c.Request.Context(), date, req.ShiftID, req.Items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save requirements",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":  req.Date,
		"saved": len(req.Items),
	})
}

type overrideRequirementRequest struct {
	Override decimal.NullDecimal `json:"override"`
}

// overrideRequirement sets or clears the manual quantity on a requirement
func (h *Handler) overrideRequirement(c *gin.Context) {
	requirementID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid requirement ID"})
		return
	}

	var req overrideRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.plannerService.OverrideRequirement(c.Request.Context(), requirementID, req.Override); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to set override",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requirement_id": requirementID})
}

type createProductionOrdersRequest struct {
	Date   string                           `json:"date" binding:"required"`
	Orders []service.ProductionOrderRequest `json:"orders" binding:"required,min=1"`
}

// createProductionOrders creates production orders with per-item fault
// isolation; partial failures return the created orders plus the errors
func (h *Handler) createProductionOrders(c *gin.Context) {
	var req createProductionOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	created, errs := h.plannerService.CreateProductionOrders(c.Request.Context(), date, req.Orders)
	status := http.StatusCreated
	if len(errs) > 0 && len(created) == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"created": created,
		"errors":  errs,
	})
}

// materialsRequired returns consolidated raw material needs
func (h *Handler) materialsRequired(c *gin.Context) {
	dateStr := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}
	detailed := c.Query("detailed") == "true"

	materials, err := h.plannerService.MaterialsRequired(c.Request.Context(), c.Query("assignee"), date, detailed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute material requirements",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":      dateStr,
		"materials": materials,
	})
}

// submitProductionOrder posts a production order to Manager.io
func (h *Handler) submitProductionOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	key, err := h.plannerService.SubmitProductionOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Submission failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":         orderID,
		"manager_order_id": key,
		"status":           models.ProductionOrderCompleted,
	})
}

// recordActuals records produced quantities on a production order
func (h *Handler) recordActuals(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req service.RecordActualsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.plannerService.RecordActuals(c.Request.Context(), orderID, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to record actuals",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateProductionStatus transitions a production order's workflow state
func (h *Handler) updateProductionStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.plannerService.UpdateStatus(c.Request.Context(), orderID, req.Status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Status update failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"status":   req.Status,
	})
}

// orderFinancials returns cost, sales value and margin for a production order
func (h *Handler) orderFinancials(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	financials, err := h.costingService.OrderFinancials(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Production order not found",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, financials)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
