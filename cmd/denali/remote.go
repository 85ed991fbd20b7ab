// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/manifest"
	"github.com/maxponych/denali/internal/remote"
	"github.com/maxponych/denali/internal/root"
	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "manage registered remote stores and run the sync protocol's remote-side stages",
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <host> <path>",
	Short: "register a remote store reachable over ssh",
	Args:  cobra.ExactArgs(3),
	RunE:  runRemoteAdd,
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "unregister a remote store",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteRemove,
}

var remoteManifestCmd = &cobra.Command{
	Use:   "manifest <name>",
	Short: "merge and print the registered projects of a remote store, without transferring any content",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteManifest,
}

var remoteReceiveCmd = &cobra.Command{
	Use:    "receive",
	Short:  "answer an incoming sync over stdin/stdout (invoked by the peer's ssh command, not run by hand)",
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE:   runRemoteReceive,
}

var remoteSendProject string

var remoteSendCmd = &cobra.Command{
	Use:    "send",
	Short:  "initiate a sync over stdin/stdout, pushing this store's state to whoever dialed in",
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE:   runRemoteSend,
}

func init() {
	remoteSendCmd.Flags().StringVar(&remoteSendProject, "project", "all", `project to sync ("all" for every live project)`)
	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteManifestCmd, remoteReceiveCmd, remoteSendCmd)
}

func runRemoteAdd(cmd *cobra.Command, args []string) error {
	name, host, path := args[0], args[1], args[2]
	r, err := openRoot()
	if err != nil {
		return err
	}
	if r.Main.Remotes == nil {
		r.Main.Remotes = map[string]manifest.RemoteRef{}
	}
	r.Main.Remotes[name] = manifest.RemoteRef{Host: host, Path: path}
	if err := saveMain(r); err != nil {
		return err
	}
	cmd.Printf("added remote %q (%s:%s)\n", name, host, path)
	return nil
}

func runRemoteRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	r, err := openRoot()
	if err != nil {
		return err
	}
	if _, ok := r.Main.Remotes[name]; !ok {
		return &denalierr.NotFoundError{Kind: "remote", Name: name}
	}
	delete(r.Main.Remotes, name)
	if err := saveMain(r); err != nil {
		return err
	}
	cmd.Printf("removed remote %q\n", name)
	return nil
}

func runRemoteManifest(cmd *cobra.Command, args []string) error {
	name := args[0]
	r, err := openRoot()
	if err != nil {
		return err
	}
	ref, ok := r.Main.Remotes[name]
	if !ok {
		return &denalierr.NotFoundError{Kind: "remote", Name: name}
	}

	transport, err := remote.Dial(ref.Host, "denali", "remote", "receive", "--root", ref.Path)
	if err != nil {
		return err
	}
	defer transport.Close()

	if _, err := root.SyncInitiate(r, transport, "none"); err != nil {
		return err
	}
	for projectName, p := range r.Main.Projects {
		if p.IsDeleted {
			continue
		}
		cmd.Println(projectName)
	}
	return nil
}

func runRemoteReceive(cmd *cobra.Command, args []string) error {
	r, err := openRoot()
	if err != nil {
		return err
	}
	_, err = root.SyncRespond(r, stdioConn{})
	return err
}

func runRemoteSend(cmd *cobra.Command, args []string) error {
	r, err := openRoot()
	if err != nil {
		return err
	}
	_, err = root.SyncInitiate(r, stdioConn{}, remoteSendProject)
	return err
}

// saveMain persists a main-manifest-only mutation (remote registry
// add/remove) without going through a project-mutating Root method.
func saveMain(r *root.Root) error {
	return r.FlushMain()
}
