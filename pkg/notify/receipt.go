package notify

import (
	"fmt"
	"html"
	"strings"

	"wallet_core/models"
)

const receiptRow = `
                      <tr>
                        <td style="font-family:Arial,sans-serif;font-size:16px;color:#555;padding:6px 0;">%s</td>
                        <td style="font-family:Arial,sans-serif;font-size:16px;color:#111;font-weight:bold;padding:6px 0;">%s</td>
                      </tr>`

const receiptBody = `<body style="margin:0;padding:0;background:#f6f6f6;">
  <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="background:#f6f6f6;">
    <tr>
      <td align="center">
        <table width="100%%" cellpadding="0" cellspacing="0" border="0" style="max-width:600px;background:#f3f2f0;border-radius:28px;">
          <tr>
            <td style="padding:32px;text-align:left;">
              <h1 style="margin:0 0 12px 0;font-family:Arial,sans-serif;font-size:32px;font-weight:700;color:#111;">Payment received</h1>
              <p style="margin:0 0 24px 0;font-family:Arial,sans-serif;font-size:20px;color:#222;">A customer paid %s.</p>
              <table cellpadding="0" cellspacing="0" border="0" style="width:100%%;margin-bottom:24px;">%s
              </table>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>`

// BuildReceipt renders the merchant receipt for a settled payment.
func BuildReceipt(tx models.Transaction, to string) Receipt {
	rows := [][2]string{
		{"Transaction", tx.ID.String()},
		{"Channel", strings.ToUpper(string(tx.Channel))},
		{"Amount", models.FormatAmount(tx.Amount, tx.Currency) + " " + tx.Currency.String()},
	}
	if tx.MerchantID != "" {
		rows = append(rows, [2]string{"Merchant ID", tx.MerchantID})
	}
	if tx.IntentID != "" {
		rows = append(rows, [2]string{"Reference", tx.IntentID})
	}
	if tx.SettledAt != nil {
		rows = append(rows, [2]string{"Settled", tx.SettledAt.UTC().Format("2006-01-02 15:04:05 MST")})
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, receiptRow, html.EscapeString(row[0]), html.EscapeString(row[1]))
	}

	return Receipt{
		TransactionID: tx.ID.String(),
		To:            to,
		Subject:       fmt.Sprintf("New payment: %s %s", models.FormatAmount(tx.Amount, tx.Currency), tx.Currency),
		HTML:          fmt.Sprintf(receiptBody, html.EscapeString(tx.Counterparty), b.String()),
	}
}
