package myemail

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcGrol/checkoutbackend/lib/mylog"
	"github.com/MarcGrol/checkoutbackend/lib/myuuid"
)

// logEmailer only logs outgoing mail, used when no provider api-key is configured
type logEmailer struct {
	logger mylog.Logger
	uuider myuuid.UUIDer
}

func NewLogEmailer(logger mylog.Logger, uuider myuuid.UUIDer) *logEmailer {
	return &logEmailer{
		logger: logger,
		uuider: uuider,
	}
}

func (m *logEmailer) Send(c context.Context, email Email) (string, error) {
	if email.To.Email == "" {
		return "", fmt.Errorf("missing recipient")
	}
	cc := []string{}
	for _, a := range email.Cc {
		cc = append(cc, a.Email)
	}
	messageID := m.uuider.Create()
	m.logger.Log(c, messageID, mylog.SeverityInfo, "Email from %s to %s (cc: %s): %s", email.From.Email, email.To.Email, strings.Join(cc, ","), email.Subject)

	return messageID, nil
}
