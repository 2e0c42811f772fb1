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

// Default returns a Config with every field set to the same defaults
// BindFlags registers, for callers (tests, cmd's initConfig) that
// construct a Config without going through cobra/viper.
func Default() Config {
	return Config{
		FileSystem: FileSystemConfig{
			Uid:      -1,
			Gid:      -1,
			DirMode:  0777,
			FileMode: 0666,
		},
		Logging: LoggingConfig{
			Format:   TextFormat,
			Severity: InfoLogSeverity,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9923",
		},
	}
}
