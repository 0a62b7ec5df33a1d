package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSMTPClient struct {
	from string
	rcpt []string
	data bytes.Buffer
	quit bool
}

func (f *fakeSMTPClient) Mail(from string) error { f.from = from; return nil }
func (f *fakeSMTPClient) Rcpt(to string) error   { f.rcpt = append(f.rcpt, to); return nil }
func (f *fakeSMTPClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.data}, nil
}
func (f *fakeSMTPClient) Quit() error                     { f.quit = true; return nil }
func (f *fakeSMTPClient) Close() error                    { return nil }
func (f *fakeSMTPClient) StartTLS(*tls.Config) error      { return nil }
func (f *fakeSMTPClient) Auth(smtp.Auth) error            { return nil }
func (f *fakeSMTPClient) Extension(string) (bool, string) { return false, "" }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newTestMailer(t *testing.T, cfg SMTPConfig) (*smtpMailer, *fakeSMTPClient) {
	t.Helper()

	client := &fakeSMTPClient{}
	mailer, err := NewSMTPMailer(cfg)
	require.NoError(t, err)

	sm := mailer.(*smtpMailer)
	sm.dialFn = func(ctx context.Context, cfg SMTPConfig) (net.Conn, smtpClient, error) {
		server, _ := net.Pipe()
		return server, client, nil
	}
	sm.authFn = func(smtpClient, SMTPConfig) error { return nil }
	return sm, client
}

func TestSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPConfig{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{To: []string{"user@example.com"}})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSendWritesMessage(t *testing.T) {
	mailer, client := newTestMailer(t, SMTPConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "noreply@hireloop.io",
	})

	err := mailer.Send(context.Background(), Message{
		To:      []string{"seeker@example.com", "seeker@example.com"},
		Subject: "New Job: Platform Engineer",
		Body:    "A job matching your profile was posted.",
	})
	require.NoError(t, err)

	require.Equal(t, "noreply@hireloop.io", client.from)
	require.Equal(t, []string{"seeker@example.com"}, client.rcpt)
	require.True(t, client.quit)

	body := client.data.String()
	require.Contains(t, body, "Subject: New Job: Platform Engineer")
	require.True(t, strings.HasSuffix(body, "A job matching your profile was posted."))
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	mailer, _ := newTestMailer(t, SMTPConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "noreply@hireloop.io",
	})

	err := mailer.Send(context.Background(), Message{To: []string{"not-an-address"}})
	require.Error(t, err)
}
