// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport opens the shared bus, either a local UART or a remote
// bus bridged over WebSocket.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
)

// ErrConnectionClosed is returned when reading from a closed connection
var ErrConnectionClosed = errors.New("connection closed")

// Conn is a bidirectional byte stream to the bus.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// Options selects and configures the bus connection. URL takes precedence
// over Port.
type Options struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration // serial only; 0 blocks forever

	URL         string
	Username    string
	Password    string
	NoSSLVerify bool
}

// PasswordEnv is checked before prompting for a WebSocket password.
const PasswordEnv = "TEAMLINK_PASSWORD"

// Password retrieves the bridge password from the environment or prompts
// for it on the terminal.
func Password() (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal, read a plain line instead
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// Open connects to the bus and returns the connection with a short
// description for status lines.
func Open(opts Options) (Conn, string, error) {
	if opts.URL != "" {
		password := opts.Password
		if opts.Username != "" && password == "" {
			var err error
			password, err = Password()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := DialWebSocket(opts.URL, opts.Username, password, opts.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", opts.URL), nil
	}

	if opts.Port != "" {
		conn, err := OpenSerial(opts.Port, opts.Baud, opts.ReadTimeout)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", opts.Port, opts.Baud), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}
