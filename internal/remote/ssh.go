// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote launches the peer side of a sync as an ssh
// subprocess and exposes its stdin/stdout as a single io.ReadWriteCloser
// pack stream, per spec.md §4.7/§6 ("ssh subprocess for remote
// transport; invocation is free to choose another launcher").
//
// No SSH client library appears anywhere in the retrieval pack, and
// the spec explicitly calls for a subprocess transport rather than an
// in-process protocol implementation, so this wraps os/exec the same
// way original_source's remote_sync shells out to `ssh` — see
// DESIGN.md.
package remote

import (
	"io"
	"os/exec"

	"github.com/maxponych/denali/internal/denalierr"
)

// Transport is a bidirectional byte stream to a peer store's sync
// endpoint, reachable over ssh.
type Transport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

// newCmd builds the launcher subprocess, overridable in tests so Dial's
// pipe-wiring can be exercised against a trivial echo process instead
// of a real ssh server.
var newCmd = func(host string, remoteCommand []string) *exec.Cmd {
	args := append([]string{"-o", "BatchMode=yes", host}, remoteCommand...)
	return exec.Command("ssh", args...)
}

// Dial starts `ssh -o BatchMode=yes <host> <remoteCommand...>` and
// returns a Transport wired to its stdin/stdout.
func Dial(host string, remoteCommand ...string) (*Transport, error) {
	cmd := newCmd(host, remoteCommand)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &denalierr.RemoteError{Op: "open stdin", Err: denalierr.ErrStdinFailed}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &denalierr.RemoteError{Op: "open stdout", Err: denalierr.ErrNoStdout}
	}

	if err := cmd.Start(); err != nil {
		return nil, &denalierr.RemoteError{Op: "start ssh", Err: err}
	}

	return &Transport{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

// Read reads from the peer's stdout.
func (t *Transport) Read(p []byte) (int, error) { return t.stdout.Read(p) }

// Write writes to the peer's stdin.
func (t *Transport) Write(p []byte) (int, error) { return t.stdin.Write(p) }

// Close finishes writing (closing stdin, signaling EOF to the peer)
// and waits for the subprocess to exit.
func (t *Transport) Close() error {
	if err := t.stdin.Close(); err != nil {
		return &denalierr.RemoteError{Op: "close stdin", Err: err}
	}
	if err := t.cmd.Wait(); err != nil {
		return &denalierr.RemoteError{Op: "wait ssh", Err: err}
	}
	return nil
}
