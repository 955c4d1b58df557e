package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/gomail.v2"

	"github.com/khoido2003/natour-api/pkg/config"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSMTPMailerBuild(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "localhost", Port: 1025, From: "Natours <hello@natours.io>"})
	gm := m.Build(Message{To: "user@example.com", Subject: "Reset", Text: "plain body", HTML: "<p>html body</p>"})

	assert.Equal(t, []string{"Natours <hello@natours.io>"}, gm.GetHeader("From"))
	assert.Equal(t, []string{"user@example.com"}, gm.GetHeader("To"))
	assert.Equal(t, []string{"Reset"}, gm.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := gm.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "plain body")
	assert.Contains(t, buf.String(), "<p>html body</p>")
}

func TestSMTPMailerSend(t *testing.T) {
	fd := &fakeDialer{}
	m := &SMTPMailer{from: "hello@natours.io", dialer: fd}

	require.NoError(t, m.Send(context.Background(), Message{To: "user@example.com", Subject: "Hi", Text: "body"}))
	assert.Len(t, fd.sent, 1)

	fd.err = errors.New("relay down")
	assert.Error(t, m.Send(context.Background(), Message{To: "user@example.com"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "user@example.com"}), context.Canceled)
}

func TestNewPicksImplementation(t *testing.T) {
	_, ok := New(config.MailConfig{Enabled: false}, nil).(*LogMailer)
	assert.True(t, ok)

	_, ok = New(config.MailConfig{Enabled: true, Host: "smtp", Port: 25}, nil).(*SMTPMailer)
	assert.True(t, ok)
}

func TestLogMailerOmitsBodies(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	link := "https://natours.dev/api/v1/users/resetPassword/3f9a0c1d2e"
	require.NoError(t, m.Send(context.Background(), Message{
		To:      "user@example.com",
		Subject: "Your password reset token (valid for 10 min)",
		Text:    "Reset here: " + link,
		HTML:    `<a href="` + link + `">reset</a>`,
	}))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "user@example.com", fields["to"])
	for key, value := range fields {
		if s, ok := value.(string); ok {
			assert.NotContains(t, s, "3f9a0c1d2e", key)
		}
	}
	assert.NotContains(t, entries[0].Message, "3f9a0c1d2e")
}
