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

package meta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeStatRoundTrip(t *testing.T) {
	st := Ishstat{Mode: TypeChr | 0644, Uid: 1000, Gid: 1001, Rdev: 0x0102}
	blob := EncodeStat(st)
	require.Len(t, blob, 16)

	got, err := DecodeStat(blob)
	require.NoError(t, err)
	require.Equal(t, st, got)
}

func TestDecodeStat_WrongLength(t *testing.T) {
	_, err := DecodeStat([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestIsBlockOrChar(t *testing.T) {
	require.True(t, Ishstat{Mode: TypeChr}.IsBlockOrChar())
	require.True(t, Ishstat{Mode: TypeBlk}.IsBlockOrChar())
	require.False(t, Ishstat{Mode: TypeReg}.IsBlockOrChar())
	require.False(t, Ishstat{Mode: TypeDir}.IsBlockOrChar())
}
