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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const defaultTimestampFormat = "2006-01-02 15:04:05.000"

var (
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}

	settingsMu  sync.RWMutex
	logLevel    = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info"))
	logFormat   = normalizeFormat(EnvDefaultString("LOG_FORMAT", "text"))
	logOutput   io.Writer = os.Stderr
	logFilePath string
	logFile     *os.File
)

func normalizeFormat(format string) string {
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		return "json"
	}
	return "text"
}

// ParseLogLevel maps a level name to a logrus level, defaulting to info.
func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// NewLogger returns the logger registered under name, creating it with the
// current level, format and output when it does not exist yet.
func NewLogger(name string) *logrus.Logger {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	if l, ok := loggerRegistry[name]; ok {
		return l
	}
	settingsMu.RLock()
	l := logrus.New()
	l.SetOutput(logOutput)
	l.SetLevel(logLevel)
	l.SetFormatter(newFormatter(name, logFormat, logFile == nil))
	settingsMu.RUnlock()
	loggerRegistry[name] = l
	return l
}

func newFormatter(name, format string, colored bool) logrus.Formatter {
	if format == "json" {
		return &JSONLogFormatter{LoggerName: name}
	}
	return &Log4jColorFormatter{LoggerName: name, NameWidth: 8, Colored: colored}
}

func eachLogger(fn func(name string, l *logrus.Logger)) {
	loggerRegistryMu.RLock()
	defer loggerRegistryMu.RUnlock()
	for name, l := range loggerRegistry {
		fn(name, l)
	}
}

// SetLoggerLevel changes the level of one registered logger.
func SetLoggerLevel(name string, lvlStr string) bool {
	loggerRegistryMu.RLock()
	l, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	l.SetLevel(ParseLogLevel(lvlStr))
	return true
}

// ConfigureLogLevel sets the level for existing and future loggers.
func ConfigureLogLevel(levelStr string) {
	lvl := ParseLogLevel(levelStr)
	settingsMu.Lock()
	logLevel = lvl
	settingsMu.Unlock()
	eachLogger(func(_ string, l *logrus.Logger) { l.SetLevel(lvl) })
}

// ConfigureLogFormat switches between "text" and "json".
func ConfigureLogFormat(format string) {
	settingsMu.Lock()
	logFormat = normalizeFormat(format)
	f, colored := logFormat, logFile == nil
	settingsMu.Unlock()
	eachLogger(func(name string, l *logrus.Logger) { l.SetFormatter(newFormatter(name, f, colored)) })
}

// ConfigureLogFile appends every logger to path instead of stderr. An empty
// path restores stderr.
func ConfigureLogFile(path string) error {
	settingsMu.Lock()
	if path == logFilePath {
		settingsMu.Unlock()
		return nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logFilePath = path
	logOutput = os.Stderr
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			settingsMu.Unlock()
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			settingsMu.Unlock()
			return err
		}
		logFile = f
		logOutput = f
	}
	out, format, colored := logOutput, logFormat, logFile == nil
	settingsMu.Unlock()

	eachLogger(func(name string, l *logrus.Logger) {
		l.SetOutput(out)
		l.SetFormatter(newFormatter(name, format, colored))
	})
	return nil
}

// Log4jColorFormatter writes "time LEVEL pid --- [name] : message key=value".
type Log4jColorFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
	Colored         bool
}

var levelColors = map[logrus.Level]*color.Color{
	logrus.PanicLevel: color.New(color.FgRed, color.Bold),
	logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.DebugLevel: color.New(color.FgBlue),
	logrus.TraceLevel: color.New(color.FgMagenta),
}

var (
	nameColor  = color.New(color.FgCyan)
	faintColor = color.New(color.Faint)
)

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	lvlName := entry.Level.String()
	if entry.Level == logrus.WarnLevel {
		lvlName = "warn"
	}
	lvl := fmt.Sprintf("%5s", strings.ToUpper(lvlName))
	name := fmt.Sprintf("%*s", f.NameWidth, limitRunes(f.LoggerName, f.NameWidth))
	sep := ":"
	if f.Colored {
		if c, ok := levelColors[entry.Level]; ok {
			lvl = c.Sprint(lvl)
		}
		name = nameColor.Sprint(name)
		sep = faintColor.Sprint(sep)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %-6d --- [%s] %s %s",
		entry.Time.Format(tsFormat), lvl, os.Getpid(), name, sep, entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// JSONLogFormatter writes one JSON object per entry.
type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	rec := struct {
		Time    string                 `json:"time"`
		Level   string                 `json:"level"`
		Model   string                 `json:"model"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields,omitempty"`
	}{
		Time:    entry.Time.Format(tsFormat),
		Level:   entry.Level.String(),
		Model:   f.LoggerName,
		Message: entry.Message,
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			rec.Fields[k] = v
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}
