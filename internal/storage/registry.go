//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of Floe.
//
// Floe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Floe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Floe. If not, see https://www.gnu.org/licenses/.

package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/aaronlmathis/floe/internal/config"
)

// Registry binds named storage definitions to lazily-constructed Client
// instances and holds one instance of each for the lifetime of a run.
// An entity referencing the same storage name twice shares one client,
// and therefore one credential chain and one connection pool.
type Registry struct {
	defs map[string]config.StorageDefinition
	def  string

	mu      sync.Mutex
	clients map[string]Client
}

// NewRegistry builds a Registry from the storages block of a loaded
// config. A nil storages block yields a registry that serves only the
// implicit "local" storage.
func NewRegistry(storages *config.StoragesConfig) *Registry {
	r := &Registry{
		defs:    make(map[string]config.StorageDefinition),
		clients: make(map[string]Client),
	}
	if storages == nil {
		return r
	}
	r.def = storages.Default
	for _, d := range storages.Definitions {
		r.defs[d.Name] = d
	}
	return r
}

// Resolve returns the client for name, constructing it on first use.
// An empty name resolves to the registry's default storage, or to
// "local" if no default was configured.
func (r *Registry) Resolve(ctx context.Context, name string) (Client, error) {
	if name == "" {
		name = r.def
	}
	if name == "" || name == "local" {
		return NewLocalClient(), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[name]; ok {
		return c, nil
	}

	def, ok := r.defs[name]
	if !ok {
		return nil, &Error{Storage: name, URI: "", Op: "resolve", Err: fmt.Errorf("undefined storage %q", name)}
	}

	client, err := newClient(ctx, def)
	if err != nil {
		return nil, err
	}
	r.clients[name] = client
	return client, nil
}

// Definition returns the raw definition for name, so callers that need
// prefix/bucket metadata (the target resolver, chiefly) don't have to
// duplicate the registry's lookup table.
func (r *Registry) Definition(name string) (config.StorageDefinition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

func newClient(ctx context.Context, def config.StorageDefinition) (Client, error) {
	switch def.Type {
	case "local", "":
		return NewLocalClient(), nil
	case "s3":
		return NewS3Client(ctx, def.Bucket, def.Region)
	case "adls":
		return NewADLSClient(def.Account, def.Container)
	case "gcs":
		return NewGCSClient(ctx, def.Bucket)
	default:
		return nil, &Error{Storage: def.Name, Op: "resolve", Err: fmt.Errorf("unsupported storage type %q", def.Type)}
	}
}
