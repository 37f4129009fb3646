package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annalza/mint-stock-flow/internal/domain"
	"github.com/annalza/mint-stock-flow/internal/platform/observability"
	"github.com/annalza/mint-stock-flow/internal/report"
)

// Defaults applied when a request leaves the field out.
const (
	DefaultReceiveQty = 10
	DefaultIssueQty   = 5
	DefaultRequester  = "Current User"
	DefaultApprover   = "Admin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Operations is the command and query surface the adapter drives.
type Operations interface {
	ListItems(ctx context.Context) []domain.ItemView
	GetItem(ctx context.Context, id int64) (domain.ItemView, error)
	GetItemByCode(ctx context.Context, code string) (domain.ItemView, error)
	Receive(ctx context.Context, id int64, qty int) (domain.ItemView, error)
	Issue(ctx context.Context, id int64, qty int) (domain.ItemView, error)
	EditMetadata(ctx context.Context, id int64, patch domain.ItemPatch) (domain.ItemView, error)

	ListRecipes(ctx context.Context) ([]domain.RecipeView, error)
	GetRecipe(ctx context.Context, id int64) (domain.RecipeView, error)
	Sell(ctx context.Context, recipeID int64) (domain.SaleResult, error)

	ListProcurements(ctx context.Context, filter domain.Filter) []domain.ProcurementView
	ProcurementCounts(ctx context.Context) domain.ProcurementCounts
	Submit(ctx context.Context, itemID int64, qty int, requestedBy string) (domain.ProcurementView, error)
	Approve(ctx context.Context, id int64, approver string) (domain.ProcurementView, error)
	Reject(ctx context.Context, id int64, approver string) (domain.ProcurementView, error)
	Remove(ctx context.Context, id int64) error
}

// Handler translates HTTP requests into operations.
type Handler struct {
	ops    Operations
	logger observability.Logger
	now    func() time.Time
}

// NewHandler creates a handler with explicit dependencies
func NewHandler(ops Operations, logger observability.Logger) *Handler {
	return &Handler{ops: ops, logger: logger, now: time.Now}
}

type quantityRequest struct {
	Qty *int `json:"qty"`
}

type editItemRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=128"`
	ReorderLevel *int    `json:"reorder_level"`
	ExpiryDays   *int    `json:"expiry_days"`
	ClearExpiry  bool    `json:"clear_expiry"`
	Location     *string `json:"location" binding:"omitempty,max=128"`
}

type submitRequest struct {
	ItemID      int64  `json:"item_id" binding:"required"`
	Qty         int    `json:"qty"`
	RequestedBy string `json:"requested_by" binding:"max=128"`
}

type decisionRequest struct {
	Approver string `json:"approver" binding:"max=128"`
}

// bindOptional decodes a JSON body that may be absent altogether.
func bindOptional(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not a number", domain.ErrInvalidArgument, c.Param("id"))
	}
	return id, nil
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListItems(c *gin.Context) {
	items := h.ops.ListItems(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) GetItem(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	item, err := h.ops.GetItem(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) GetItemByCode(c *gin.Context) {
	item, err := h.ops.GetItemByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Receive handles POST /items/:id/receive. qty defaults to 10.
func (h *Handler) Receive(c *gin.Context) {
	h.move(c, DefaultReceiveQty, h.ops.Receive)
}

// Issue handles POST /items/:id/issue. qty defaults to 5.
func (h *Handler) Issue(c *gin.Context) {
	h.move(c, DefaultIssueQty, h.ops.Issue)
}

func (h *Handler) move(c *gin.Context, defaultQty int, op func(context.Context, int64, int) (domain.ItemView, error)) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req quantityRequest
	if err := bindOptional(c, &req); err != nil {
		h.failBinding(c, err)
		return
	}
	qty := defaultQty
	if req.Qty != nil {
		qty = *req.Qty
	}

	item, err := op(c.Request.Context(), id, qty)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) EditItem(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req editItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.failBinding(c, err)
		return
	}

	item, err := h.ops.EditMetadata(c.Request.Context(), id, domain.ItemPatch{
		Name:         req.Name,
		ReorderLevel: req.ReorderLevel,
		ExpiryDays:   req.ExpiryDays,
		ClearExpiry:  req.ClearExpiry,
		Location:     req.Location,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) ListRecipes(c *gin.Context) {
	recipes, err := h.ops.ListRecipes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes, "count": len(recipes)})
}

func (h *Handler) GetRecipe(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	recipe, err := h.ops.GetRecipe(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *Handler) Sell(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	sale, err := h.ops.Sell(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// ListProcurements handles GET /procurements?status=.
func (h *Handler) ListProcurements(c *gin.Context) {
	filter, err := domain.ParseFilter(c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	requests := h.ops.ListProcurements(c.Request.Context(), filter)
	c.JSON(http.StatusOK, gin.H{"procurements": requests, "count": len(requests)})
}

func (h *Handler) ProcurementCounts(c *gin.Context) {
	c.JSON(http.StatusOK, h.ops.ProcurementCounts(c.Request.Context()))
}

func (h *Handler) SubmitProcurement(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.failBinding(c, err)
		return
	}
	if req.RequestedBy == "" {
		req.RequestedBy = DefaultRequester
	}

	view, err := h.ops.Submit(c.Request.Context(), req.ItemID, req.Qty, req.RequestedBy)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) ApproveProcurement(c *gin.Context) {
	h.decide(c, h.ops.Approve)
}

func (h *Handler) RejectProcurement(c *gin.Context) {
	h.decide(c, h.ops.Reject)
}

func (h *Handler) decide(c *gin.Context, op func(context.Context, int64, string) (domain.ProcurementView, error)) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req decisionRequest
	if err := bindOptional(c, &req); err != nil {
		h.failBinding(c, err)
		return
	}
	if req.Approver == "" {
		req.Approver = DefaultApprover
	}

	view, err := op(c.Request.Context(), id, req.Approver)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) RemoveProcurement(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.ops.Remove(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StockReport streams the XLSX workbook of the current state.
func (h *Handler) StockReport(c *gin.Context) {
	ctx := c.Request.Context()
	recipes, err := h.ops.ListRecipes(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	data := report.Data{
		GeneratedAt:  h.now(),
		Items:        h.ops.ListItems(ctx),
		Recipes:      recipes,
		Procurements: h.ops.ListProcurements(ctx, domain.FilterAll),
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, data); err != nil {
		h.fail(c, fmt.Errorf("write stock report: %w", err))
		return
	}

	filename := "stock-report-" + data.GeneratedAt.Format("20060102-150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
