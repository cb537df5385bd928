package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	materialapp "github.com/mes/backend/internal/application/material"
	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/interfaces/http/router"
)

// MaterialHandler handles arrivals, receiving, lots, issues, stock and labels
type MaterialHandler struct {
	BaseHandler
	arrivals  *materialapp.ArrivalService
	receiving *materialapp.ReceivingService
	lots      *materialapp.LotService
	issues    *materialapp.IssueService
	stocks    *materialapp.StockService
	labels    *materialapp.LabelService
}

// MaterialServices groups the services behind MaterialHandler
type MaterialServices struct {
	Arrivals  *materialapp.ArrivalService
	Receiving *materialapp.ReceivingService
	Lots      *materialapp.LotService
	Issues    *materialapp.IssueService
	Stocks    *materialapp.StockService
	Labels    *materialapp.LabelService
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(s MaterialServices) *MaterialHandler {
	return &MaterialHandler{
		arrivals:  s.Arrivals,
		receiving: s.Receiving,
		lots:      s.Lots,
		issues:    s.Issues,
		stocks:    s.Stocks,
		labels:    s.Labels,
	}
}

var transactionColumns = map[string]string{
	"transType": "trans_type",
	"partId":    "part_id",
	"lotId":     "lot_id",
	"refType":   "ref_type",
}

// ListArrivals returns arrival transactions
func (h *MaterialHandler) ListArrivals(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"partId": "part_id", "lotId": "lot_id"})
	if !ok {
		return
	}
	p, err := h.arrivals.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// ArrivalStats returns today's arrival counters
func (h *MaterialHandler) ArrivalStats(c *gin.Context) {
	stats, err := h.arrivals.Stats(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ReceivePO books arrivals against purchase order lines
func (h *MaterialHandler) ReceivePO(c *gin.Context) {
	var req materialapp.POArrivalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	txs, err := h.arrivals.ReceivePO(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txs)
}

// ReceiveManual books an arrival without a purchase order
func (h *MaterialHandler) ReceiveManual(c *gin.Context) {
	var req materialapp.ManualArrivalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tx, err := h.arrivals.ReceiveManual(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// CancelArrival reverses an arrival transaction
func (h *MaterialHandler) CancelArrival(c *gin.Context) {
	var req materialapp.CancelArrivalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tx, err := h.arrivals.Cancel(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Receivable lists IQC-passed lots still waiting to be put away
func (h *MaterialHandler) Receivable(c *gin.Context) {
	lots, err := h.receiving.Receivable(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// Receive puts lots away into warehouses
func (h *MaterialHandler) Receive(c *gin.Context) {
	var req materialapp.ReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	txs, err := h.receiving.Receive(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txs)
}

// ListReceipts returns receiving transactions
func (h *MaterialHandler) ListReceipts(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"partId": "part_id", "lotId": "lot_id"})
	if !ok {
		return
	}
	p, err := h.receiving.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// ListLots returns material lots
func (h *MaterialHandler) ListLots(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{
		"partId":    "part_id",
		"partType":  "part_type",
		"iqcStatus": "iqc_status",
	})
	if !ok {
		return
	}
	p, err := h.lots.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetLot returns a lot by id
func (h *MaterialHandler) GetLot(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	lot, err := h.lots.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lot)
}

// GetLotByNo returns a lot by its number, typically a scanned UID
func (h *MaterialHandler) GetLotByNo(c *gin.Context) {
	lot, err := h.lots.GetByLotNo(c.Request.Context(), h.Actor(c), strings.TrimSpace(c.Param("lotNo")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lot)
}

// LotStocks returns the stock rows holding a lot
func (h *MaterialHandler) LotStocks(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	stocks, err := h.lots.Stocks(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stocks)
}

// UpdateIqc records the incoming inspection result
func (h *MaterialHandler) UpdateIqc(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req materialapp.IqcRequest
	if !h.BindJSON(c, &req) {
		return
	}
	lot, err := h.lots.UpdateIqc(c.Request.Context(), h.Actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lot)
}

// HoldLot blocks a lot from being issued
func (h *MaterialHandler) HoldLot(c *gin.Context) {
	transition(&h.BaseHandler, c, h.lots.Hold)
}

// ReleaseLot lifts a hold
func (h *MaterialHandler) ReleaseLot(c *gin.Context) {
	transition(&h.BaseHandler, c, h.lots.Release)
}

// ListIssues returns material issues
func (h *MaterialHandler) ListIssues(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{
		"jobOrderId":  "job_order_id",
		"lotId":       "lot_id",
		"warehouseId": "warehouse_id",
		"issueType":   "issue_type",
	})
	if !ok {
		return
	}
	p, err := h.issues.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// GetIssue returns one issue
func (h *MaterialHandler) GetIssue(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	issue, err := h.issues.GetByID(c.Request.Context(), h.Actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, issue)
}

// Issue takes lots out of stock for production or subcontracting
func (h *MaterialHandler) Issue(c *gin.Context) {
	var req materialapp.IssueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	issues, err := h.issues.Issue(c.Request.Context(), h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, issues)
}

type cancelIssueRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CancelIssue returns an issued quantity to stock
func (h *MaterialHandler) CancelIssue(c *gin.Context) {
	id, ok := h.ID(c)
	if !ok {
		return
	}
	var req cancelIssueRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	issue, err := h.issues.Cancel(c.Request.Context(), h.Actor(c), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, issue)
}

// ListStocks returns stock rows
func (h *MaterialHandler) ListStocks(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"warehouseId": "warehouse_id", "partId": "part_id", "lotId": "lot_id"})
	if !ok {
		return
	}
	p, err := h.stocks.List(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// StockSummary returns stock totals per part
func (h *MaterialHandler) StockSummary(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"warehouseId": "warehouse_id", "partId": "part_id"})
	if !ok {
		return
	}
	rows, err := h.stocks.Summary(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Shortages lists parts below their safety stock
func (h *MaterialHandler) Shortages(c *gin.Context) {
	rows, err := h.stocks.Shortages(c.Request.Context(), h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Transactions returns the material transaction ledger
func (h *MaterialHandler) Transactions(c *gin.Context) {
	filter, ok := h.ListFilter(c, transactionColumns)
	if !ok {
		return
	}
	p, err := h.stocks.Transactions(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// CreateLabels issues material UID labels. In SERVER print mode the
// response is the rendered PDF instead of the label data.
func (h *MaterialHandler) CreateLabels(c *gin.Context) {
	var req materialapp.MatLabelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	labels, err := h.labels.CreateMatLabels(ctx, h.Actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.PrintMode != material.PrintModeServer {
		h.Created(c, labels)
		return
	}
	pdf, err := h.labels.RenderPDF(ctx, "MAT "+labels[0].LotNo, labels)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="mat-labels.pdf"`)
	c.Data(http.StatusCreated, "application/pdf", pdf)
}

// LabelLogs returns label print batches
func (h *MaterialHandler) LabelLogs(c *gin.Context) {
	filter, ok := h.ListFilter(c, map[string]string{"category": "category", "printMode": "print_mode"})
	if !ok {
		return
	}
	p, err := h.labels.Logs(c.Request.Context(), h.Actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writePage(c, p)
}

// RegisterRoutes registers the material routes
func (h *MaterialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := router.NewDomainGroup("material", "/material")

	g.Group("arrivals", "/arrivals").
		GET("", h.ListArrivals).
		GET("/stats", h.ArrivalStats).
		POST("/po", h.ReceivePO).
		POST("/manual", h.ReceiveManual).
		POST("/cancel", h.CancelArrival)

	g.Group("receiving", "/receiving").
		GET("", h.ListReceipts).
		GET("/receivable", h.Receivable).
		POST("", h.Receive)

	g.Group("lots", "/lots").
		GET("", h.ListLots).
		GET("/lot-no/:lotNo", h.GetLotByNo).
		GET("/:id", h.GetLot).
		GET("/:id/stocks", h.LotStocks).
		PATCH("/:id/iqc", h.UpdateIqc).
		PATCH("/:id/hold", h.HoldLot).
		PATCH("/:id/release", h.ReleaseLot)

	g.Group("issues", "/issues").
		GET("", h.ListIssues).
		GET("/:id", h.GetIssue).
		POST("", h.Issue).
		PATCH("/:id/cancel", h.CancelIssue)

	g.Group("stocks", "/stocks").
		GET("", h.ListStocks).
		GET("/summary", h.StockSummary).
		GET("/shortages", h.Shortages).
		GET("/transactions", h.Transactions)

	g.Group("labels", "/labels").
		POST("", h.CreateLabels).
		GET("/logs", h.LabelLogs)

	g.RegisterRoutes(rg)
}
