package notification

import (
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender delivers plain text mail. Auth is used only when a username is configured.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	host = strings.TrimSpace(host)
	s := &SMTPSender{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		from: strings.TrimSpace(from),
		send: smtp.SendMail,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

func (s *SMTPSender) Send(to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("header injection in recipient or subject")
	}
	return s.send(s.addr, s.auth, s.from, []string{to}, []byte(buildMessage(s.from, to, subject, body)))
}

func buildMessage(from, to, subject, body string) string {
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		body,
	)
}
