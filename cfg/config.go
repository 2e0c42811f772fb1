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

// Package cfg is the mount-time configuration surface for fakefs,
// bound from flags (spf13/pflag) and an optional YAML file through
// spf13/viper, the same two-step bind-then-unmarshal shape the
// teacher's generated cfg package uses.
package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	// DataDir is the data directory: its basename must be "data", and
	// the shadow store is the sibling file "meta.db" (spec.md §4.4
	// step 1).
	DataDir ResolvedPath `yaml:"data-dir"`

	FileSystem FileSystemConfig `yaml:"file-system"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type FileSystemConfig struct {
	// Uid/Gid own inodes synthesized by the rebuild walk (spec.md
	// §4.4 step 6) for host objects that have no shadow row yet.
	Uid int `yaml:"uid"`
	Gid int `yaml:"gid"`

	// DirMode/FileMode are parsed and range-checked by Validate but
	// are not passed to the mount: the host-side mkdir always uses
	// 0777 and the host-side open always uses 0666. They do not affect
	// the guest-visible shadow mode either.
	DirMode  Octal `yaml:"dir-mode"`
	FileMode Octal `yaml:"file-mode"`
}

type LoggingConfig struct {
	Format      LogFormat   `yaml:"format"`
	Severity    LogSeverity `yaml:"severity"`
	FilePath    ResolvedPath `yaml:"file-path"`
	MaxSizeMB   int         `yaml:"max-size-mb"`
	BackupCount int         `yaml:"backup-count"`
	Compress    bool        `yaml:"compress"`
}

type MetricsConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

// BindFlags registers every Config field as a flag and binds it into
// viper under the matching dotted key, mirroring the teacher's
// generated cfg.BindFlags.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("data-dir", "", "", "Data directory: must be named data; meta.db sits beside it.")
	if err = viper.BindPFlag("data-dir", flagSet.Lookup("data-dir")); err != nil {
		return err
	}

	flagSet.IntP("uid", "", -1, "Owner uid for inodes synthesized during rebuild.")
	if err = viper.BindPFlag("file-system.uid", flagSet.Lookup("uid")); err != nil {
		return err
	}

	flagSet.IntP("gid", "", -1, "Owner gid for inodes synthesized during rebuild.")
	if err = viper.BindPFlag("file-system.gid", flagSet.Lookup("gid")); err != nil {
		return err
	}

	flagSet.StringP("dir-mode", "", "777", "Octal permission bits (validated only; host-side mkdir uses 0777).")
	if err = viper.BindPFlag("file-system.dir-mode", flagSet.Lookup("dir-mode")); err != nil {
		return err
	}

	flagSet.StringP("file-mode", "", "666", "Octal permission bits (validated only; host-side open uses 0666).")
	if err = viper.BindPFlag("file-system.file-mode", flagSet.Lookup("file-mode")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Log format: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "INFO", "Minimum severity logged: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Log file path; empty means stderr.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.BoolP("metrics", "", false, "Serve Prometheus metrics.")
	if err = viper.BindPFlag("metrics.enable", flagSet.Lookup("metrics")); err != nil {
		return err
	}

	flagSet.StringP("metrics-addr", "", "127.0.0.1:9923", "Address for the metrics HTTP endpoint.")
	if err = viper.BindPFlag("metrics.addr", flagSet.Lookup("metrics-addr")); err != nil {
		return err
	}

	return nil
}
