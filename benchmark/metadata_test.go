// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package benchmark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTmp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadCPUModel(t *testing.T) {
	path := writeTmp(t, "cpuinfo", `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
processor	: 1
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
`)
	model, err := readCPUModel(path)
	require.NoError(t, err)
	assert.Equal(t, "Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz", model)
}

func TestReadCPUModelMissingEntry(t *testing.T) {
	path := writeTmp(t, "cpuinfo", "processor: 0\n")
	_, err := readCPUModel(path)
	assert.Error(t, err)
}

func TestReadTotalRAMMB(t *testing.T) {
	path := writeTmp(t, "meminfo", `MemTotal:       16393932 kB
MemFree:         1234567 kB
`)
	ramMB, err := readTotalRAMMB(path)
	require.NoError(t, err)
	assert.Equal(t, 16009, ramMB)
}

func TestReadTotalRAMMBMissingEntry(t *testing.T) {
	path := writeTmp(t, "meminfo", "MemFree: 10 kB\n")
	_, err := readTotalRAMMB(path)
	assert.Error(t, err)
}
