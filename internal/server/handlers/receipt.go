package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tripsplit/tripsplitd/internal/core/receipt"
	"github.com/tripsplit/tripsplitd/internal/server/apierrors"
	"github.com/tripsplit/tripsplitd/internal/server/middleware"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// ReceiptHandler turns OCR text into a draft itemized expense. Parsing never
// persists anything; the client reviews the draft and submits it as a
// regular expense.
type ReceiptHandler struct {
	store  relationaldb.RepositoryManager
	parser *receipt.Parser
}

func NewReceiptHandler(store relationaldb.RepositoryManager, parser *receipt.Parser) *ReceiptHandler {
	return &ReceiptHandler{store: store, parser: parser}
}

type ocrRequest struct {
	RawText string `json:"rawText"`
}

// Parse extracts merchant, date, totals and line items from raw OCR text.
func (h *ReceiptHandler) Parse(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	tripID, ok := pathID(c)
	if !ok {
		return
	}
	if _, ok := requireMembership(c, h.store.Trips(), tripID, userID); !ok {
		return
	}

	var req ocrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Send(c, apierrors.ErrBadRequest)
		return
	}
	if strings.TrimSpace(req.RawText) == "" {
		apierrors.Send(c, apierrors.ErrBadRequest.Msg("rawText is required"))
		return
	}

	c.JSON(http.StatusOK, h.parser.Parse(c.Request.Context(), req.RawText))
}
