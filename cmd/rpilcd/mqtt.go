// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"

	"github.com/GermanBionicSystems/pidevices/dht11"
)

const mqttTimeout = 10 * time.Second

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

// message is the JSON payload of a published reading.
type message struct {
	Humidity    int       `json:"humidity"`
	Temperature int       `json:"temperature"`
	Timestamp   time.Time `json:"timestamp"`
}

// mqttPublisher publishes readings to one topic over a plain TCP connection.
type mqttPublisher struct {
	conn     net.Conn
	client   *mqtt.Client
	topic    []byte
	packetID uint16
	logger   *slog.Logger
}

// dialMQTT connects to the broker at addr and waits for the CONNACK.
func dialMQTT(ctx context.Context, addr, id, topic string, logger *slog.Logger) (*mqttPublisher, error) {
	var d net.Dialer
	d.Timeout = mqttTimeout
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	p, err := newMQTTPublisher(conn, id, topic, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Info("mqtt:connected", "addr", addr, "topic", topic)
	return p, nil
}

func newMQTTPublisher(conn net.Conn, id, topic string, logger *slog.Logger) (*mqttPublisher, error) {
	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 4096)},
		OnPub: func(_ mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			logger.Debug("mqtt:received", "topic", string(varPub.TopicName))
			return nil
		},
	})
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(id))
	if err := conn.SetDeadline(time.Now().Add(mqttTimeout)); err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	if err := client.StartConnect(conn, &varconn); err != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}
	for !client.IsConnected() {
		if err := client.HandleNext(); err != nil {
			return nil, fmt.Errorf("mqtt: connect: %w", err)
		}
	}
	return &mqttPublisher{conn: conn, client: client, topic: []byte(topic), logger: logger}, nil
}

// Publish sends r as a QoS 0 message.
func (p *mqttPublisher) Publish(r dht11.Reading, at time.Time) error {
	if !p.client.IsConnected() {
		return errors.New("mqtt: not connected")
	}
	payload, err := json.Marshal(message{Humidity: r.Humidity, Temperature: r.Temperature, Timestamp: at})
	if err != nil {
		return err
	}
	if err := p.conn.SetDeadline(time.Now().Add(mqttTimeout)); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	p.packetID++
	vars := mqtt.VariablesPublish{TopicName: p.topic, PacketIdentifier: p.packetID}
	if err := p.client.PublishPayload(pubFlags, vars, payload); err != nil {
		return fmt.Errorf("mqtt: publish: %w", err)
	}
	p.logger.Debug("mqtt:published", "packetID", p.packetID)
	return nil
}

// Close drops the connection.
func (p *mqttPublisher) Close() error {
	return p.conn.Close()
}
