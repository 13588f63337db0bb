// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watch

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

const (
	exchangeEvents   = "amp_events"
	eventContentType = "application/amp_fault"
)

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var amqpDial = func(url string) (amqpChannel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn.Close, nil
}

// Publisher publishes fault events on a fanout AMQP exchange.
type Publisher struct {
	ch    amqpChannel
	close func() error
}

// NewPublisher connects to the AMQP broker at url and declares the
// events exchange.
func NewPublisher(url string) (*Publisher, error) {
	ch, closeConn, err := amqpDial(url)
	if err != nil {
		return nil, fmt.Errorf("watch: could not connect to broker: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchangeEvents, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = closeConn()
		return nil, fmt.Errorf("watch: could not declare exchange %q: %w", exchangeEvents, err)
	}

	return &Publisher{ch: ch, close: closeConn}, nil
}

// Notify publishes evt as JSON.
func (pub *Publisher) Notify(evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("watch: could not encode event: %w", err)
	}

	err = pub.ch.Publish(exchangeEvents, "", false, false, amqp.Publishing{
		ContentType: eventContentType,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("watch: could not publish event: %w", err)
	}
	return nil
}

// Close closes the channel and the connection to the broker.
func (pub *Publisher) Close() error {
	err := pub.ch.Close()
	if err != nil {
		_ = pub.close()
		return fmt.Errorf("watch: could not close channel: %w", err)
	}
	err = pub.close()
	if err != nil {
		return fmt.Errorf("watch: could not close connection: %w", err)
	}
	return nil
}
