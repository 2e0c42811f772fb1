// Copyright 2025 Google LLC
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

// Package logger provides the structured logger fakefs operations and
// the mount lifecycle write through. It wraps log/slog with a custom
// severity ladder (TRACE below DEBUG) and rotates log files on disk
// through lumberjack when a file path is configured.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity levels, matching the vocabulary accepted by LoggingConfig.Severity.
const (
	TRACE   = "TRACE"
	DEBUG   = "DEBUG"
	INFO    = "INFO"
	WARNING = "WARNING"
	ERROR   = "ERROR"
	OFF     = "OFF"
)

// slog has no native TRACE level; it is defined below Debug.
const (
	LevelTrace = slog.LevelDebug - 4
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(math32Max)
)

const math32Max = 1<<31 - 1

var levelNames = map[slog.Leveler]string{
	LevelTrace: TRACE,
}

type loggerFactory struct {
	mu     sync.Mutex
	file   *lumberjack.Logger
	format string
	level  string
}

var (
	defaultLoggerFactory = &loggerFactory{level: INFO, format: "text"}
	defaultLogger        = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, toLevelVar(INFO), ""))
)

// Config is the subset of cfg.LoggingConfig the logger needs; kept
// narrow here so this package does not import internal/cfg.
type Config struct {
	Format   string // "text" | "json"
	Severity string // TRACE|DEBUG|INFO|WARNING|ERROR|OFF
	FilePath string // "" => stderr
	MaxSizeMB int
	BackupCount int
	Compress bool
}

// Init (re)configures the package-level logger used by Tracef..Errorf.
func Init(cfg Config) error {
	defaultLoggerFactory.mu.Lock()
	defer defaultLoggerFactory.mu.Unlock()

	defaultLoggerFactory.format = cfg.Format
	defaultLoggerFactory.level = cfg.Severity

	var w io.Writer = os.Stderr
	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 512),
			MaxBackups: cfg.BackupCount,
			Compress:   cfg.Compress,
		}
		defaultLoggerFactory.file = lj
		w = lj
	}

	programLevel := toLevelVar(cfg.Severity)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(w, programLevel, ""))
	return nil
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

func toLevelVar(level string) *slog.LevelVar {
	v := new(slog.LevelVar)
	setLoggingLevel(level, v)
	return v
}

func setLoggingLevel(level string, programLevel *slog.LevelVar) {
	switch strings.ToUpper(level) {
	case TRACE:
		programLevel.Set(LevelTrace)
	case DEBUG:
		programLevel.Set(LevelDebug)
	case INFO:
		programLevel.Set(LevelInfo)
	case WARNING:
		programLevel.Set(LevelWarn)
	case ERROR:
		programLevel.Set(LevelError)
	case OFF, "":
		programLevel.Set(LevelOff)
	default:
		programLevel.Set(LevelInfo)
	}
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, programLevel *slog.LevelVar, prefix string) slog.Handler {
	replace := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey {
			level := a.Value.Any().(slog.Level)
			if name, ok := levelNames[level]; ok {
				a.Value = slog.StringValue(name)
			} else {
				a.Value = slog.StringValue(level.String())
			}
			a.Key = "severity"
		}
		if a.Key == slog.MessageKey && prefix != "" {
			a.Value = slog.StringValue(prefix + a.Value.String())
		}
		return a
	}
	opts := &slog.HandlerOptions{Level: programLevel, ReplaceAttr: replace}
	if strings.EqualFold(f.format, "json") || f.format == "" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func log(ctx context.Context, level slog.Level, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	defaultLogger.Log(ctx, level, msg)
}

func Tracef(format string, args ...any) { log(context.Background(), LevelTrace, format, args...) }
func Debugf(format string, args ...any) { log(context.Background(), LevelDebug, format, args...) }
func Infof(format string, args ...any)  { log(context.Background(), LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { log(context.Background(), LevelWarn, format, args...) }
func Errorf(format string, args ...any) { log(context.Background(), LevelError, format, args...) }

// Fatalf logs at ERROR and terminates the process. It is the hook the
// metadata store's corruption/invariant-violation path calls instead
// of returning an error (spec: store corruption and a missing inode
// row for a live path are both unrecoverable in-band).
func Fatalf(format string, args ...any) {
	Errorf(format, args...)
	os.Exit(1)
}
