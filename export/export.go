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

// Package export writes a result set to a file: tab separated text with a
// header line, a JSON array of objects or a YAML sequence.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomoncle/parkdesk/types"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts a format name or a file extension. "txt" is TSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "tsv", "txt":
		return FormatTSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", types.Errorf(types.ValidationError, "export", "unknown format %q", s)
}

// FormatFor picks the format from the extension of path.
func FormatFor(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatTSV
	}
	return f
}

// Write encodes rs to w. An absent result is a ValidationError.
func Write(w io.Writer, rs *types.ResultSet, format Format) error {
	if rs == nil || len(rs.Columns) == 0 {
		return types.Errorf(types.ValidationError, "export", "there is no result to export")
	}
	switch format {
	case FormatTSV, "":
		return WriteTSV(w, rs)
	case FormatJSON:
		return WriteJSON(w, rs)
	case FormatYAML:
		return WriteYAML(w, rs)
	}
	return types.Errorf(types.ValidationError, "export", "unknown format %q", format)
}

// WriteTSV writes the header and one line per row. NULL is written as an
// empty cell.
func WriteTSV(w io.Writer, rs *types.ResultSet) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(rs.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(rs.Strings()); err != nil {
		return err
	}
	return cw.Error()
}

func WriteJSON(w io.Writer, rs *types.ResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs.Objects())
}

func WriteYAML(w io.Writer, rs *types.ResultSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rs.Objects()); err != nil {
		return err
	}
	return enc.Close()
}

// ToFile writes rs to path, replacing the file.
func ToFile(path string, rs *types.ResultSet, format Format) (err error) {
	if rs == nil || len(rs.Columns) == 0 {
		return types.Errorf(types.ValidationError, "export", "there is no result to export")
	}
	f, err := os.Create(path)
	if err != nil {
		return types.Wrap(types.ValidationError, "export", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return Write(f, rs, format)
}
