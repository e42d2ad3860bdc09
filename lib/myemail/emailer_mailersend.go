package myemail

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

const (
	sendTimeout = 10 * time.Second
)

type mailersendEmailer struct {
	client *mailersend.Mailersend
}

func NewMailersendEmailer(apiKey string) *mailersendEmailer {
	return &mailersendEmailer{
		client: mailersend.NewMailersend(apiKey),
	}
}

func (m *mailersendEmailer) Send(c context.Context, email Email) (string, error) {
	c, cancel := context.WithTimeout(c, sendTimeout)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(mailersend.From{Name: email.From.Name, Email: email.From.Email})
	msg.SetRecipients([]mailersend.Recipient{{Name: email.To.Name, Email: email.To.Email}})
	if len(email.Cc) > 0 {
		cc := []mailersend.Recipient{}
		for _, a := range email.Cc {
			cc = append(cc, mailersend.Recipient{Name: a.Name, Email: a.Email})
		}
		msg.SetCc(cc)
	}
	msg.SetSubject(email.Subject)
	if strings.TrimSpace(email.HTML) != "" {
		msg.SetHTML(email.HTML)
	}
	if strings.TrimSpace(email.Text) != "" {
		msg.SetText(email.Text)
	}

	res, err := m.client.Email.Send(c, msg)
	if err != nil {
		return "", fmt.Errorf("error sending email to %s: %s", email.To.Email, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	return res.Header.Get("X-Message-Id"), nil
}
