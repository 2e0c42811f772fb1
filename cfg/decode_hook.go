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
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// hookFunc lets viper.Unmarshal populate the UnmarshalText-based types
// above from the plain strings/ints it reads out of flags and YAML.
func hookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		s := data.(string)
		switch t {
		case reflect.TypeOf(Octal(0)):
			return strconv.ParseInt(s, 8, 32)
		case reflect.TypeOf(LogSeverity("")):
			var v LogSeverity
			if err := v.UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
			return string(v), nil
		case reflect.TypeOf(LogFormat("")):
			var v LogFormat
			if err := v.UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
			return string(v), nil
		case reflect.TypeOf(ResolvedPath("")):
			var v ResolvedPath
			if err := v.UnmarshalText([]byte(s)); err != nil {
				return nil, err
			}
			return string(v), nil
		}
		return data, nil
	}
}

// DecoderConfigOption is passed to viper.Unmarshal to install hookFunc
// alongside viper's defaults.
func DecoderConfigOption(c *mapstructure.DecoderConfig) {
	c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		hookFunc(),
	)
}
