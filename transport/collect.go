// Package transport provides the long-lived, message-oriented connections
// that carry STOMP frames between the monitor and its two downstream
// counterparts: the network-events feed and quiet-route-plan clients.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"container/heap"
	"sync"
	"time"

	"github.com/livetransit/network-monitor/cmn/debug"
	"github.com/livetransit/network-monitor/cmn/mono"
)

type (
	// tracked pairs a Conn with the mono.NanoTime() of its last observed
	// activity. The heap is ordered by lastActive as of insertion; Touch
	// updates lastActive in place without re-ordering the heap, and sweep
	// scans every tracked Conn on each tick.
	tracked struct {
		c          Conn
		lastActive int64 // mono.NanoTime() of last observed Send/receive
		index      int
	}

	ctrl struct {
		t   *tracked
		add bool
	}

	// Collector watches every live Conn registered with it and closes
	// whichever have been idle past idleTeardown, freeing goroutines and
	// sockets that a departed client never bothered to close cleanly.
	Collector struct {
		mu            sync.Mutex
		byID          map[string]*tracked
		heap          trackedHeap
		ctrlCh        chan ctrl
		stopCh        chan struct{}
		idleTeardown  time.Duration
		tick          time.Duration
	}

	trackedHeap []*tracked
)

// NewCollector constructs a Collector; idleTeardown <= 0 uses dfltIdleTeardown.
func NewCollector(idleTeardown time.Duration) *Collector {
	if idleTeardown <= 0 {
		idleTeardown = dfltIdleTeardown
	}
	return &Collector{
		byID:         make(map[string]*tracked, 64),
		ctrlCh:       make(chan ctrl, 64),
		stopCh:       make(chan struct{}),
		idleTeardown: idleTeardown,
		tick:         dfltTick,
	}
}

func (gc *Collector) Name() string { return "conn-collector" }

// Watch begins tracking c for idle teardown. Touch must be called by the
// Conn implementation on every Send/receive to keep it alive.
func (gc *Collector) Watch(c Conn) {
	gc.ctrlCh <- ctrl{t: &tracked{c: c, lastActive: mono.NanoTime()}, add: true}
}

func (gc *Collector) Forget(c Conn) {
	gc.ctrlCh <- ctrl{t: &tracked{c: c}, add: false}
}

// Run services add/remove requests and sweeps for idle connections until
// Stop is called. Same min-heap-by-ticks shape as the object-streaming
// version of this package used for its per-stream idle timers, generalized
// from one stream per (network, trname, session) to one Conn per websocket.
func (gc *Collector) Run() {
	t := time.NewTicker(gc.tick)
	defer t.Stop()
	for {
		select {
		case c := <-gc.ctrlCh:
			gc.apply(c)
		case <-t.C:
			gc.sweep()
		case <-gc.stopCh:
			gc.mu.Lock()
			for _, tr := range gc.byID {
				_ = tr.c.Close()
			}
			gc.mu.Unlock()
			return
		}
	}
}

func (gc *Collector) Stop(_ error) { close(gc.stopCh) }

func (gc *Collector) apply(ctl ctrl) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	id := ctl.t.c.ID()
	if ctl.add {
		if _, ok := gc.byID[id]; ok {
			return
		}
		gc.byID[id] = ctl.t
		heap.Push(&gc.heap, ctl.t)
		return
	}
	if tr, ok := gc.byID[id]; ok {
		heap.Remove(&gc.heap, tr.index)
		delete(gc.byID, id)
	}
}

func (gc *Collector) sweep() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	now := mono.NanoTime()
	var stale []*tracked
	for _, tr := range gc.byID {
		if time.Duration(now-tr.lastActive) >= gc.idleTeardown {
			stale = append(stale, tr)
		}
	}
	for _, tr := range stale {
		delete(gc.byID, tr.c.ID())
		heap.Remove(&gc.heap, tr.index)
		_ = tr.c.Close()
	}
}

// Touch is called by Conn implementations on every observed activity so
// the collector doesn't mistake a busy connection for an idle one.
func (gc *Collector) Touch(c Conn) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if tr, ok := gc.byID[c.ID()]; ok {
		tr.lastActive = mono.NanoTime()
		debug.Assert(tr.index >= 0)
	}
}

func (h trackedHeap) Len() int           { return len(h) }
func (h trackedHeap) Less(i, j int) bool { return h[i].lastActive < h[j].lastActive }
func (h trackedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *trackedHeap) Push(x any) {
	tr := x.(*tracked)
	tr.index = len(*h)
	*h = append(*h, tr)
}
func (h *trackedHeap) Pop() any {
	old := *h
	n := len(old)
	tr := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return tr
}
