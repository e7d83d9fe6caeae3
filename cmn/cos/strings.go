// Package cos provides common low-level types and utilities shared across
// the monitor's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import "strings"

// JoinWords joins non-empty path segments with "/", skipping empties.
func JoinWords(words ...string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			parts = append(parts, w)
		}
	}
	return strings.Join(parts, "/")
}
