// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fakefs ties the MetaStore, TxCoordinator, MountLifecycle and
// OpSemantics packages into the one entry point the CLI (and, in ish
// proper, the syscall emulator) drives: Open a mount, get back an
// operation vtable, Close when done.
package fakefs

import (
	"context"

	"github.com/ariagecheney/ish/internal/clock"
	"github.com/ariagecheney/ish/internal/fakefs/mount"
	"github.com/ariagecheney/ish/internal/fakefs/ops"
	"github.com/ariagecheney/ish/internal/fakefs/realfs"
)

// Magic identifies fakefs as a mount kind, for a syscall layer that
// dispatches on it. Nothing in this module reads it, and FS does not
// store it.
const Magic = 0x66616b65 // the ASCII bytes "fake"

// FS is a live fakefs mount: the metadata store, the transaction
// coordinator, and the operation vtable bound to them.
type FS struct {
	mount *mount.Mount
	ops   *ops.FS
}

// Options configures Open.
type Options struct {
	// DataDir must be named "data"; its sibling meta.db holds the
	// shadow store (spec.md §4.4 step 1).
	DataDir string

	// RealFS is the host-FS collaborator; nil selects
	// realfs.UnixRealFS.
	RealFS realfs.RealFS

	// Clock is the time source handles from metrics/logging read;
	// nil selects clock.RealClock.
	Clock clock.Clock

	DefaultUid uint32
	DefaultGid uint32
}

// Open runs the mount lifecycle of spec.md §4.4 and returns a bound
// operation vtable.
func Open(ctx context.Context, opts Options) (*FS, error) {
	if opts.RealFS == nil {
		opts.RealFS = realfs.UnixRealFS{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}

	m, err := mount.Mount(ctx, mount.Options{
		DataDir:    opts.DataDir,
		FS:         opts.RealFS,
		Clock:      opts.Clock,
		DefaultUid: opts.DefaultUid,
		DefaultGid: opts.DefaultGid,
	})
	if err != nil {
		return nil, err
	}

	return &FS{mount: m, ops: ops.New(m)}, nil
}

// Ops exposes the operation vtable (spec.md §4.3).
func (f *FS) Ops() *ops.FS { return f.ops }

// Close unmounts: closes the database handle (spec.md §4.4 "On
// unmount").
func (f *FS) Close() error { return f.mount.Unmount() }
