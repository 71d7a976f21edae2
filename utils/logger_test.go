/*
 * Copyright 2025 avolkov.
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
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"DEBUG":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"":         logrus.InfoLevel,
		"warning":  logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"whatever": logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetLoggerLevelTargetsOneLogger(t *testing.T) {
	a := NewLogger("LEVEL_A")
	b := NewLogger("LEVEL_B")

	if !SetLoggerLevel("LEVEL_A", "error") {
		t.Fatal("SetLoggerLevel did not find registered logger")
	}
	if a.GetLevel() != logrus.ErrorLevel {
		t.Errorf("a level = %v", a.GetLevel())
	}
	if b.GetLevel() == logrus.ErrorLevel {
		t.Error("untargeted logger level changed")
	}
	if SetLoggerLevel("UNKNOWN_LOGGER", "debug") {
		t.Error("SetLoggerLevel matched an unregistered name")
	}
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "FMT"}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2025, 3, 9, 10, 11, 12, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "slow query",
		Data:    logrus.Fields{"duration": "2.1s"},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	var rec map[string]interface{}
	if err := json.Unmarshal(out, &rec); err != nil {
		t.Fatalf("not valid JSON: %v (%q)", err, out)
	}
	if rec["level"] != "warn" || rec["name"] != "FMT" || rec["message"] != "slow query" {
		t.Errorf("record = %v", rec)
	}
	fields, ok := rec["fields"].(map[string]interface{})
	if !ok || fields["duration"] != "2.1s" {
		t.Errorf("fields = %v", rec["fields"])
	}
}

func TestConsoleFormatterContainsLevelAndName(t *testing.T) {
	f := &ConsoleFormatter{LoggerName: "CONSOLE", NameWidth: 10}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "connected",
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	line := string(out)
	if !strings.Contains(line, "INFO") {
		t.Errorf("line missing level: %q", line)
	}
	if !strings.Contains(line, "CONSOLE") {
		t.Errorf("line missing logger name: %q", line)
	}
	if !strings.Contains(line, "connected") {
		t.Errorf("line missing message: %q", line)
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_STR", "hello")
	t.Setenv("UTILS_TEST_BOOL", "true")
	t.Setenv("UTILS_TEST_INT", "42")

	if got := EnvDefaultString("UTILS_TEST_STR", "x"); got != "hello" {
		t.Errorf("string = %q", got)
	}
	if got := EnvDefaultString("UTILS_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("string fallback = %q", got)
	}
	if !EnvDefaultBool("UTILS_TEST_BOOL", false) {
		t.Error("bool not read")
	}
	if EnvDefaultBool("UTILS_TEST_MISSING", false) {
		t.Error("bool fallback wrong")
	}
	if got := EnvDefaultInt("UTILS_TEST_INT", 1); got != 42 {
		t.Errorf("int = %d", got)
	}
	if got := EnvDefaultInt("UTILS_TEST_MISSING", 7); got != 7 {
		t.Errorf("int fallback = %d", got)
	}
}
