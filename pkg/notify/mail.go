package notify

import (
	"context"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// MailjetSender delivers receipts through the Mailjet v3.1 send API.
type MailjetSender struct {
	client   *mailjet.Client
	from     string
	fromName string
}

func NewMailjetSender(apiKey, secretKey, from, fromName string) *MailjetSender {
	return &MailjetSender{
		client:   mailjet.NewMailjetClient(apiKey, secretKey),
		from:     from,
		fromName: fromName,
	}
}

func (s *MailjetSender) Send(ctx context.Context, r Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	messages := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{
		{
			From: &mailjet.RecipientV31{
				Email: s.from,
				Name:  s.fromName,
			},
			To: &mailjet.RecipientsV31{
				{Email: r.To},
			},
			Subject:  r.Subject,
			HTMLPart: r.HTML,
			CustomID: r.TransactionID,
		},
	}}
	res, err := s.client.SendMailV31(messages)
	if err != nil {
		return errors.Wrap(err, "mailjet send")
	}
	logrus.Debugf("mailjet response: %+v", res)
	return nil
}

// SMTPSender delivers receipts over SMTP with STARTTLS.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, r Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", r.To)
	m.SetHeader("Subject", r.Subject)
	m.SetHeader("Reply-To", s.from)
	m.SetBody("text/html", r.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}
