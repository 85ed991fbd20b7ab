// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "os"

// stdioConn wires os.Stdin/os.Stdout as a syncproto.Conn, for the
// remote-side `remote receive`/`remote send` subcommands an ssh
// invocation runs with its stdio piped to the dialing side's Transport.
type stdioConn struct{}

func (stdioConn) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioConn) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
