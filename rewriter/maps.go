/*
 * SDBG - Source-level script debugger
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package rewriter

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/krotik/sdbg/util"
)

/*
FormatCheckpointMap produces a stable text representation of a checkpoint
map with one line per checkpoint: id, file path, line and column.
*/
func FormatCheckpointMap(cm util.CheckpointMap) string {
	var buf bytes.Buffer

	ids := make([]int, 0, len(cm))
	for id := range cm {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		pos := cm[id]
		buf.WriteString(fmt.Sprintf("%v %v %v %v\n", id, pos.Source, pos.Line, pos.Pos))
	}

	return buf.String()
}

/*
ResolveLine resolves a source and line to the nearest checkpoint id. The
source is matched first by exact path, then by file name and finally as a
substring. Among the matching checkpoints the one with the smallest distance
to the target line wins - ties are broken by the smallest id.
*/
func ResolveLine(cm util.CheckpointMap, source string, line int) (int, error) {

	match := func(accept func(string) bool) (int, bool) {
		bestID := 0
		bestDist := -1

		ids := make([]int, 0, len(cm))
		for id := range cm {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		for _, id := range ids {
			pos := cm[id]

			if !accept(pos.Source) {
				continue
			}

			dist := pos.Line - line
			if dist < 0 {
				dist = -dist
			}

			if bestDist == -1 || dist < bestDist {
				bestID = id
				bestDist = dist
			}
		}

		return bestID, bestDist != -1
	}

	// Exact path match first, then file name, then substring

	if id, ok := match(func(s string) bool { return s == source }); ok {
		return id, nil
	}

	if id, ok := match(func(s string) bool { return filepath.Base(s) == source }); ok {
		return id, nil
	}

	if id, ok := match(func(s string) bool { return strings.Contains(s, source) }); ok {
		return id, nil
	}

	return 0, fmt.Errorf("No checkpoint found for %v:%v", source, line)
}
