package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"wallet_core/models"
	"wallet_core/pkg/txstore"
)

// GetTransactions lists the history newest first. ?filter= takes all, sent,
// received, pending, completed or failed; ?q= searches counterparty and
// currency.
func (h *Handler) GetTransactions(c *gin.Context) {
	var q txstore.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	txs := h.service.Payments.Transactions(q)
	views := make([]models.TransactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, tx.View())
	}
	wrapOkJSON(c, map[string]interface{}{
		"data": views,
	})
}

func (h *Handler) GetTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}
	tx, err := h.service.Payments.Transaction(id)
	if err != nil {
		newServiceErrorResponse(c, err)
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"data": tx.View(),
	})
}

func (h *Handler) Confirm(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}
	var proof models.ConfirmationProof
	if err := c.ShouldBindJSON(&proof); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	h.respondTx(c)(h.service.Payments.Confirm(c.Request.Context(), id, proof))
}

func (h *Handler) Settle(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}
	h.respondTx(c)(h.service.Payments.Settle(c.Request.Context(), id))
}

func (h *Handler) Fail(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}
	// the body is optional
	var in models.FailInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	h.respondTx(c)(h.service.Payments.Fail(c.Request.Context(), id, in.Reason))
}

// Retry creates a new pending transaction from a failed one.
func (h *Handler) Retry(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}
	tx, err := h.service.Payments.Retry(c.Request.Context(), id)
	if err != nil {
		newServiceErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tx.View()})
}

func (h *Handler) respondTx(c *gin.Context) func(models.Transaction, error) {
	return func(tx models.Transaction, err error) {
		if err != nil {
			newServiceErrorResponse(c, err)
			return
		}
		wrapOkJSON(c, map[string]interface{}{
			"data": tx.View(),
		})
	}
}

func transactionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid transaction id")
		return uuid.Nil, false
	}
	return id, true
}
