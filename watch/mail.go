// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watch

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"

	mail "gopkg.in/gomail.v2"
)

// Mailer sends fault events by mail.
type Mailer struct {
	Usr  string
	Pwd  string
	Srv  string
	Port int
	Tgts []string

	send func(m *Mailer, msg *mail.Message) error
}

// NewMailerFromEnv creates a mailer from the MAIL_USERNAME, MAIL_PASSWORD,
// MAIL_SERVER, MAIL_PORT and MAIL_TGTS (comma separated) environment
// variables.
func NewMailerFromEnv() (*Mailer, error) {
	m := &Mailer{
		Usr:  os.Getenv("MAIL_USERNAME"),
		Pwd:  os.Getenv("MAIL_PASSWORD"),
		Srv:  os.Getenv("MAIL_SERVER"),
		Port: atoi(os.Getenv("MAIL_PORT")),
	}
	for _, tgt := range strings.Split(os.Getenv("MAIL_TGTS"), ",") {
		tgt = strings.TrimSpace(tgt)
		if tgt != "" {
			m.Tgts = append(m.Tgts, tgt)
		}
	}

	if m.Usr == "" || m.Pwd == "" || m.Srv == "" || m.Port == 0 || len(m.Tgts) == 0 {
		return nil, fmt.Errorf("watch: missing mail credentials")
	}
	return m, nil
}

// Notify mails evt to the targets of the mailer.
func (m *Mailer) Notify(evt Event) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.Usr)
	msg.SetHeader("Bcc", m.Tgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[amp] fault alert: %q", evt.Speaker))
	msg.SetBody("text/plain", fmt.Sprintf(
		"speaker: %q\nfaults: 0x%02x\ntime: %s\nbefore: %s\nafter: %s",
		evt.Speaker, evt.Faults, evt.Time.UTC().Format("2006-01-02 15:04:05"),
		evt.Before, evt.After,
	))

	send := m.send
	if send == nil {
		send = dialAndSend
	}
	err := send(m, msg)
	if err != nil {
		return fmt.Errorf("watch: could not send mail alert: %w", err)
	}
	return nil
}

func dialAndSend(m *Mailer, msg *mail.Message) error {
	dial := mail.NewDialer(m.Srv, m.Port, m.Usr, m.Pwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	return dial.DialAndSend(msg)
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
