/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/parkdesk/types"
	"gopkg.in/yaml.v3"
)

func cars() *types.ResultSet {
	rs := types.NewResultSet("c_number", "mark", "driver_name")
	rs.Rows = append(rs.Rows,
		[]interface{}{"A123BC", "Lada", "Ann"},
		[]interface{}{"K777KK", []byte("Kia"), nil},
	)
	return rs
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cars(), FormatTSV))
	assert.Equal(t, "c_number\tmark\tdriver_name\nA123BC\tLada\tAnn\nK777KK\tKia\t\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cars(), FormatJSON))

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Kia", got[1]["mark"])
	assert.Nil(t, got[1]["driver_name"])
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cars(), FormatYAML))

	var got []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "A123BC", got[0]["c_number"])
}

func TestNothingToExport(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, nil, FormatTSV), types.ErrValidation)
	assert.ErrorIs(t, ToFile(filepath.Join(t.TempDir(), "out.txt"), nil, FormatTSV), types.ErrValidation)
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.txt")
	require.NoError(t, ToFile(path, cars(), FormatFor(path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "K777KK\tKia\t\n")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTSV, "TXT": FormatTSV, ".json": FormatJSON, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xlsx")
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, FormatJSON, FormatFor("/tmp/out.json"))
	assert.Equal(t, FormatTSV, FormatFor("/tmp/out.dat"))
}
