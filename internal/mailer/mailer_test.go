package mailer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	msg, err := build(Message{
		From:        "me@example.com",
		To:          []string{"client@example.com"},
		Subject:     "Facture 20240131",
		Body:        "Bonjour",
		Attachments: []Attachment{{Name: "20240131.pdf", Data: []byte("%PDF-1.4")}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "client@example.com")
	assert.Contains(t, raw, "20240131.pdf")
	assert.True(t, strings.Contains(raw, "Subject: Facture 20240131"))
}

func TestBuild_Errors(t *testing.T) {
	_, err := build(Message{From: "me@example.com"})
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = build(Message{From: "not an address", To: []string{"a@example.com"}})
	assert.Error(t, err)
}

func TestSend_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1})
	err := s.Send(ctx, Message{From: "me@example.com", To: []string{"a@example.com"}})
	assert.Error(t, err)
}
