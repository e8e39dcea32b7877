// SPDX-License-Identifier: Apache-2.0

// Package config holds the daemon configuration surface: where to find the
// server manager, which session to query, and how the gateway sheds load.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ValidationErr = errors.New("invalid configuration")
)

const (
	DefaultInspectAddress = "0.0.0.0:5005"
	DefaultQueueSize      = 100
	DefaultDialTimeout    = time.Second * 5
	DefaultLogLevel       = "info"
)

type Config struct {
	// ServerManagerAddress is the gRPC endpoint of the server manager.
	ServerManagerAddress string

	// SessionID is attached to every outbound inspect call.
	SessionID string

	// QueueSize bounds the number of inspect requests waiting for the
	// serializer loop.
	QueueSize int

	// InspectAddress is where the HTTP inspect API listens.
	InspectAddress string

	// DialTimeout bounds connection establishment to the server manager.
	DialTimeout time.Duration

	// CallTimeout bounds the inspect call itself; zero disables it.
	CallTimeout time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

func (c *Config) Validate() error {
	if c.ServerManagerAddress == "" {
		return errors.Join(ValidationErr, errors.New("server manager address is required"))
	}
	if c.SessionID == "" {
		return errors.Join(ValidationErr, errors.New("session id is required"))
	}
	if c.QueueSize <= 0 {
		return errors.Join(ValidationErr, fmt.Errorf("queue size must be positive, got %d", c.QueueSize))
	}
	if c.InspectAddress == "" {
		return errors.Join(ValidationErr, errors.New("inspect address is required"))
	}
	return nil
}

// String returns a formatted string representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Server Manager")
	addField("Address", c.ServerManagerAddress)
	addField("Session ID", c.SessionID)
	addField("Dial Timeout", c.DialTimeout.String())
	if c.CallTimeout > 0 {
		addField("Call Timeout", c.CallTimeout.String())
	} else {
		addField("Call Timeout", "none")
	}

	addSection("Inspect API")
	addField("Address", c.InspectAddress)
	addField("Queue Size", fmt.Sprintf("%d", c.QueueSize))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
