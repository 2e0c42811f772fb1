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

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Octal is the datatype for params such as file-mode which accept a
// base-8 value.
type Octal int

func (o *Octal) UnmarshalText(text []byte) error {
	v, err := strconv.ParseInt(string(text), 8, 32)
	if err != nil {
		return err
	}
	*o = Octal(v)
	return nil
}

func (o Octal) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(o), 8)), nil
}

// LogSeverity represents logging severity: TRACE, DEBUG, INFO,
// WARNING, ERROR, OFF.
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

var validSeverities = []string{"TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF"}

func (l *LogSeverity) UnmarshalText(text []byte) error {
	level := LogSeverity(strings.ToUpper(string(text)))
	if !slices.Contains(validSeverities, string(level)) {
		return fmt.Errorf("invalid log severity %q: must be one of %v", text, validSeverities)
	}
	*l = level
	return nil
}

// LogFormat is either "text" or "json".
type LogFormat string

const (
	TextFormat LogFormat = "text"
	JSONFormat LogFormat = "json"
)

func (f *LogFormat) UnmarshalText(text []byte) error {
	v := LogFormat(strings.ToLower(string(text)))
	if v != TextFormat && v != JSONFormat {
		return fmt.Errorf("invalid log format %q: must be text or json", text)
	}
	*f = v
	return nil
}

// ResolvedPath is an absolute, Clean-ed filesystem path. Per spec.md
// §9 Open Question (i), this canonicalization happens at config-load
// time, outside the shadow-store core, which stores byte-exact paths
// uninterpreted.
type ResolvedPath string

func (p *ResolvedPath) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*p = ""
		return nil
	}
	abs, err := filepath.Abs(s)
	if err != nil {
		return fmt.Errorf("resolving path %q: %w", s, err)
	}
	*p = ResolvedPath(filepath.Clean(abs))
	return nil
}

func (p ResolvedPath) String() string {
	return string(p)
}
