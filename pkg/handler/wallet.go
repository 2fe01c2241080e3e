package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet_core/models"
)

func (h *Handler) GetBalance(c *gin.Context) {
	wrapOkJSON(c, map[string]interface{}{
		"data": h.service.Wallet.Balances(),
	})
}

// GetPortfolio returns the USD value per currency and the total. "complete"
// is false when a price could not be fetched.
func (h *Handler) GetPortfolio(c *gin.Context) {
	wrapOkJSON(c, map[string]interface{}{
		"data": h.service.Wallet.Portfolio(c.Request.Context()),
	})
}

func (h *Handler) GetReceiveInfo(c *gin.Context) {
	info, err := h.service.Wallet.ReceiveInfo(models.ParseCurrency(c.Param("currency")))
	if err != nil {
		newServiceErrorResponse(c, err)
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"data": info,
	})
}

func (h *Handler) GetQuickAmounts(c *gin.Context) {
	amounts, err := h.service.Wallet.QuickAmounts(models.ParseCurrency(c.Param("currency")))
	if err != nil {
		newServiceErrorResponse(c, err)
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"data": amounts,
	})
}

// SendSummary prices a transfer (amount, fee, total) without creating it.
func (h *Handler) SendSummary(c *gin.Context) {
	var in models.SendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.service.Payments.Summary(in)
	if err != nil {
		newServiceErrorResponse(c, err)
		return
	}
	wrapOkJSON(c, map[string]interface{}{
		"data": summary,
	})
}

// Send creates a pending outbound transfer. It needs /confirm and /settle to
// complete.
func (h *Handler) Send(c *gin.Context) {
	var in models.SendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := h.service.Payments.Send(c.Request.Context(), in)
	if err != nil {
		newServiceErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tx.View()})
}

// Deposit records a simulated inbound transfer, settled with /settle.
func (h *Handler) Deposit(c *gin.Context) {
	var in models.DepositInput
	if err := c.ShouldBindJSON(&in); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := h.service.Payments.Deposit(c.Request.Context(), in)
	if err != nil {
		newServiceErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tx.View()})
}

// Capture takes the payload of a scanned NFC tag or QR code and creates the
// pending payment for it.
func (h *Handler) Capture(c *gin.Context) {
	var in models.CaptureInput
	if err := c.ShouldBindJSON(&in); err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := h.service.Payments.Capture(c.Request.Context(), in)
	if err != nil {
		newServiceErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tx.View()})
}
