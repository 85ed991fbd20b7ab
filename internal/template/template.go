// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package template implements the `tmpl new/list/remove` operations
// supplemented into SPEC_FULL.md §4.9: registering a captured tree as a
// reusable template, listing registered templates, and removing one.
// Template *apply* (placeholder substitution, command execution) stays
// out of scope per spec.md's non-goals; this package only manages the
// registry entries and the stored tree/config pair apply would read.
package template

import (
	"fmt"
	"os"

	"github.com/maxponych/denali/internal/config"
	"github.com/maxponych/denali/internal/denalierr"
	"github.com/maxponych/denali/internal/manifest"
	"github.com/maxponych/denali/internal/objhash"
	"github.com/maxponych/denali/internal/store"
)

// New registers a template named name, pointing at treeHash and a
// `.denali.tmpl.toml` config, in the main manifest and on disk.
func New(st *store.Store, main *manifest.MainManifest, name string, treeHash objhash.Hash, cfg config.Template) error {
	if _, exists := main.Templates[name]; exists {
		return fmt.Errorf("template %q: %w", name, denalierr.ErrSameName)
	}
	if err := config.SaveTemplate(st.TemplateConfigPath(name), cfg); err != nil {
		return err
	}
	main.Templates[name] = manifest.TemplateRef{
		Tree:   treeHash.String(),
		Config: st.TemplateConfigPath(name),
	}
	return nil
}

// List returns the registered template names.
func List(main manifest.MainManifest) []string {
	names := make([]string, 0, len(main.Templates))
	for name := range main.Templates {
		names = append(names, name)
	}
	return names
}

// Get resolves a template's tree hash and config.
func Get(st *store.Store, main manifest.MainManifest, name string) (objhash.Hash, config.Template, error) {
	ref, ok := main.Templates[name]
	if !ok {
		return objhash.Hash{}, config.Template{}, &denalierr.NotFoundError{Kind: "template", Name: name}
	}
	treeHash, err := objhash.ParseHex(ref.Tree)
	if err != nil {
		return objhash.Hash{}, config.Template{}, &denalierr.SerializationError{Format: "hash", Err: err}
	}
	cfg, err := config.LoadTemplate(ref.Config)
	if err != nil {
		return objhash.Hash{}, config.Template{}, err
	}
	return treeHash, cfg, nil
}

// Remove deletes a template's registry entry and its config file. The
// underlying tree object is reclaimed by the next GC pass once nothing
// references it.
func Remove(main *manifest.MainManifest, name string) error {
	ref, ok := main.Templates[name]
	if !ok {
		return &denalierr.NotFoundError{Kind: "template", Name: name}
	}
	delete(main.Templates, name)
	if err := os.Remove(ref.Config); err != nil && !os.IsNotExist(err) {
		return &denalierr.IOError{Op: "remove " + ref.Config, Err: err}
	}
	return nil
}
