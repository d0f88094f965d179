// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"github.com/jllopis/agora/pkg/errors"
)

func TestInitWithConfigRejectsUnknownExporter(t *testing.T) {
	_, err := InitWithConfig("agora", "test", Config{Exporter: "graphite"})
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Fatalf("got %v", err)
	}
}

func TestInitWithConfigRequiresOTLPEndpoint(t *testing.T) {
	_, err := InitWithConfig("agora", "test", Config{Exporter: "otlp"})
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Fatalf("got %v", err)
	}
}

func TestNewExportersStdout(t *testing.T) {
	spanExp, metricExp, err := newExporters(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if spanExp == nil || metricExp == nil {
		t.Error("stdout exporters not built")
	}
}
