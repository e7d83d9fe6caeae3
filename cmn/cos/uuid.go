// Package cos provides common low-level types and utilities shared across
// the monitor's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// Alphabet for generating short ids, a shortid.DEFAULT_ABC-derived
// alphabet reordered to avoid characters awkward in log lines and URLs.
const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const LenShortID = 9

var (
	sid  *shortid.Shortid
	rtie atomic.Uint32
)

func init() {
	sid = shortid.MustNew(1, uuidABC, uint64(time.Now().UnixNano()))
}

// GenUUID produces the identifier used for STOMP subscription ids,
// downstream connection ids, and request ids that the caller didn't supply
// one for: same alphabet, same tie-breaking on awkward leading/trailing
// characters.
func GenUUID() string {
	uuid := sid.MustGenerate()
	var h, t string
	if !isAlpha(uuid[0]) {
		tie := int(rtie.Add(1))
		h = string(rune('A' + tie%26))
	}
	c := uuid[len(uuid)-1]
	if c == '-' || c == '_' {
		tie := int(rtie.Add(1))
		t = string(rune('a' + tie%26))
	}
	return h + uuid + t
}

// HashString produces a stable, short, deterministic token from a string:
// the base-36 form of its 64-bit xxhash.
func HashString(s string) string {
	return strconv.FormatUint(xxhash.ChecksumString64(s), 36)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
