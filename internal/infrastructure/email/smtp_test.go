package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/retailhub/retailhub/internal/shared/config"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func newTestSender(d *recordingDialer) *SMTPSender {
	s := NewSMTPSender(config.EmailConfig{FromAddress: "noreply@retailhub.test", FromName: "RetailHub"})
	s.dialer = d
	return s
}

func TestSMTPSender_Send(t *testing.T) {
	d := &recordingDialer{}
	s := newTestSender(d)

	err := s.Send(context.Background(), Message{
		To:        "owner@example.com",
		Subject:   "Leave approved",
		PlainBody: "Your leave was approved.",
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Leave approved"}, m.GetHeader("Subject"))
	assert.Contains(t, m.GetHeader("From")[0], "noreply@retailhub.test")

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Your leave was approved.")
}

func TestSMTPSender_RequiresRecipient(t *testing.T) {
	d := &recordingDialer{}
	err := newTestSender(d).Send(context.Background(), Message{Subject: "x"})
	assert.Error(t, err)
	assert.Empty(t, d.sent)
}

func TestSMTPSender_WrapsDialError(t *testing.T) {
	d := &recordingDialer{err: errors.New("connection refused")}
	err := newTestSender(d).Send(context.Background(), Message{To: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &recordingDialer{}
	assert.ErrorIs(t, newTestSender(d).Send(ctx, Message{To: "a@b.c"}), context.Canceled)
	assert.Empty(t, d.sent)
}
