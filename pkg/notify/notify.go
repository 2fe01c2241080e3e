// Package notify mails payment receipts to the merchant inbox after an NFC
// or QR payment settles.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wallet_core/models"
)

const DefaultSendTimeout = 15 * time.Second

type Receipt struct {
	TransactionID string
	To            string
	Subject       string
	HTML          string
}

type Sender interface {
	Send(ctx context.Context, r Receipt) error
}

type Notifier struct {
	sender  Sender
	to      string
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotifier(sender Sender, to string) *Notifier {
	return &Notifier{sender: sender, to: to, timeout: DefaultSendTimeout}
}

// OnTransaction sends a receipt in the background for every completed
// outbound NFC or QR payment. Other transactions are ignored.
func (n *Notifier) OnTransaction(tx models.Transaction) {
	if tx.Status != models.StatusCompleted || tx.Direction != models.DirectionSent {
		return
	}
	if tx.Channel != models.ChannelNFC && tx.Channel != models.ChannelQR {
		return
	}

	r := BuildReceipt(tx, n.to)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		log := logrus.WithFields(logrus.Fields{"transaction": tx.ID, "to": r.To})
		if err := n.sender.Send(ctx, r); err != nil {
			log.WithField("error", err).Error("notify: receipt not sent")
			return
		}
		log.Info("notify: receipt sent")
	}()
}

// Wait blocks until every receipt in flight has been handed to the sender.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
