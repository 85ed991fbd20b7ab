// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package syncproto

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/stretchr/testify/require"
)

func TestProjectFrameRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	id := uuid.New()
	require.NoError(t, WriteProject(buf, id, []byte(`{"name":"demo"}`)))

	frame, err := ReadFrame(buf)
	require.NoError(t, err)
	require.Equal(t, TagProject, frame.Tag)
	require.Equal(t, id, frame.UUID)
	require.Equal(t, `{"name":"demo"}`, string(frame.Payload))
}

func TestSnapshotFrameRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	hash := objhash.Sum([]byte("content"))
	require.NoError(t, WriteSnapshot(buf, hash, []byte("metadata bytes")))

	frame, err := ReadFrame(buf)
	require.NoError(t, err)
	require.Equal(t, TagSnapshot, frame.Tag)
	require.Equal(t, hash, frame.Hash)
	require.Equal(t, "metadata bytes", string(frame.Payload))
}

func TestObjectFrameRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	hash := objhash.Sum([]byte("blob"))
	require.NoError(t, WriteObject(buf, hash, []byte("blob content")))

	frame, err := ReadFrame(buf)
	require.NoError(t, err)
	require.Equal(t, TagObject, frame.Tag)
	require.Equal(t, hash, frame.Hash)
}

func TestMainFrameRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteMain(buf, []byte(`{"projects":{}}`)))

	frame, err := ReadFrame(buf)
	require.NoError(t, err)
	require.Equal(t, TagMain, frame.Tag)
	require.Equal(t, `{"projects":{}}`, string(frame.Payload))
}

func TestNotFoundFrameRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteNotFound(buf))

	frame, err := ReadFrame(buf)
	require.NoError(t, err)
	require.Equal(t, TagNotFound, frame.Tag)
	require.Empty(t, frame.Payload)
}

func TestSequentialFramesOnOneStream(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteMain(buf, []byte("main")))
	id := uuid.New()
	require.NoError(t, WriteProject(buf, id, []byte("proj")))
	require.NoError(t, WriteNotFound(buf))

	f1, err := ReadFrame(buf)
	require.NoError(t, err)
	require.Equal(t, TagMain, f1.Tag)

	f2, err := ReadFrame(buf)
	require.NoError(t, err)
	require.Equal(t, TagProject, f2.Tag)
	require.Equal(t, id, f2.UUID)

	f3, err := ReadFrame(buf)
	require.NoError(t, err)
	require.Equal(t, TagNotFound, f3.Tag)
}

func TestReadFrameRejectsUnknownTag(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x7F})
	_, err := ReadFrame(buf)
	require.Error(t, err)
}
