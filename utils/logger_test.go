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

package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" warning "))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("loud"))
}

func TestLog4jColorFormatterPlain(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "CATALOG", NameWidth: 8}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "table resolved",
		Data:    logrus.Fields{"table": "car", "columns": 4},
	}
	b, err := f.Format(entry)
	require.NoError(t, err)
	line := string(b)
	assert.True(t, strings.HasPrefix(line, "2025-01-02 03:04:05.000  WARN "))
	assert.Contains(t, line, "[ CATALOG] : table resolved columns=4 table=car\n")
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "PAGER"}
	entry := &logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.ErrorLevel,
		Message: "reload failed",
		Data:    logrus.Fields{"error": assert.AnError},
	}
	b, err := f.Format(entry)
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "PAGER", rec["model"])
	assert.Equal(t, assert.AnError.Error(), rec["fields"].(map[string]interface{})["error"])
}

func TestNewLoggerRegistry(t *testing.T) {
	a := NewLogger("REGISTRY")
	b := NewLogger("REGISTRY")
	assert.Same(t, a, b)
	assert.True(t, SetLoggerLevel("REGISTRY", "debug"))
	assert.Equal(t, logrus.DebugLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("NOPE", "debug"))
}

func TestConfigureLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "parkdesk.log")
	require.NoError(t, ConfigureLogFile(path))
	defer func() { _ = ConfigureLogFile("") }()

	l := NewLogger("FILELOG")
	l.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("PARKDESK_TEST_INT", "42")
	t.Setenv("PARKDESK_TEST_BOOL", "nope")
	t.Setenv("PARKDESK_TEST_LIST", " car, driver ,,event_car ")

	assert.Equal(t, 42, EnvDefaultInt("PARKDESK_TEST_INT", 1))
	assert.Equal(t, 7, EnvDefaultInt("PARKDESK_TEST_MISSING", 7))
	assert.True(t, EnvDefaultBool("PARKDESK_TEST_BOOL", true))
	assert.Equal(t, []string{"car", "driver", "event_car"}, EnvList("PARKDESK_TEST_LIST", nil))
	assert.Equal(t, "x", EnvDefaultString("PARKDESK_TEST_MISSING", "x"))
}
