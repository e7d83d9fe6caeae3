// Package mono provides low-level monotonic time used for log-write
// timestamps and connection idle tracking.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

// NanoTime returns a monotonic reading in nanoseconds. Some runtimes pull
// this straight from the scheduler via go:linkname for a few extra
// nanoseconds of precision; this module has no need for that, so the only
// variant goes through time.Since, whose Go 1.9+ monotonic component is
// already immune to wall-clock adjustments for the subtraction use sites
// in this module (nlog write timestamps, transport.Collector idle tracking).
// Readings count from process start, not from the Unix epoch.
func NanoTime() int64 { return int64(time.Since(start)) }

var start = time.Now()
