/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package util

import (
	"bytes"
	"testing"
)

func TestMemoryLogger(t *testing.T) {

	ml := NewMemoryLogger(5)

	ml.LogDebug("test")
	ml.LogInfo("test")

	if ml.String() != `debug: test
test` {
		t.Error("Unexpected result:", ml.String())
		return
	}

	if res := ml.Slice(); len(res) != 2 {
		t.Error("Unexpected result:", res)
		return
	}

	if ml.Size() != 2 {
		t.Error("Unexpected size:", ml.Size())
		return
	}

	ml.Reset()

	if ml.Size() != 0 {
		t.Error("Unexpected size after reset:", ml.Size())
		return
	}
}

func TestLogLevelLogger(t *testing.T) {

	ml := NewMemoryLogger(10)

	logger, err := NewLogLevelLogger(ml, "info")

	if err != nil {
		t.Error(err)
		return
	}

	if logger.Level() != Info {
		t.Error("Unexpected level:", logger.Level())
		return
	}

	logger.LogDebug("d")
	logger.LogInfo("i")
	logger.LogError("e")

	if ml.String() != `i
error: e` {
		t.Error("Unexpected result:", ml.String())
		return
	}

	// Invalid levels are rejected

	if _, err := NewLogLevelLogger(ml, "foo"); err == nil ||
		err.Error() != "Invalid log level: foo" {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestBufferLogger(t *testing.T) {

	var buf bytes.Buffer

	bl := NewBufferLogger(&buf)

	bl.LogDebug("d")
	bl.LogInfo("i")
	bl.LogError("e")

	if buf.String() != `debug: d
i
error: e
` {
		t.Error("Unexpected result:", buf.String())
		return
	}

	// The null logger discards everything

	nl := NewNullLogger()

	nl.LogDebug("d")
	nl.LogInfo("i")
	nl.LogError("e")
}
