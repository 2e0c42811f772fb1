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

package cfg

import "fmt"

// Validate rejects configurations the mount lifecycle cannot act on.
// It does not touch the filesystem; the data directory's basename and
// the database magic are checked by mount.Mount itself (spec.md §4.4
// steps 1-2).
func Validate(c *Config) error {
	if c.DataDir == "" {
		return fmt.Errorf("data-dir is required")
	}
	if c.Logging.Format != "" && c.Logging.Format != TextFormat && c.Logging.Format != JSONFormat {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.FileSystem.FileMode < 0 || c.FileSystem.FileMode > 0777 {
		return fmt.Errorf("file-system.file-mode out of range: %o", c.FileSystem.FileMode)
	}
	if c.FileSystem.DirMode < 0 || c.FileSystem.DirMode > 0777 {
		return fmt.Errorf("file-system.dir-mode out of range: %o", c.FileSystem.DirMode)
	}
	return nil
}
