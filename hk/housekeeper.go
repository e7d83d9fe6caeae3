// Package hk provides a mechanism for registering cleanup and periodic
// reporting functions which are invoked at specified intervals.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"container/heap"
	"sync"
	"time"

	"github.com/livetransit/network-monitor/cmn/debug"
	"github.com/livetransit/network-monitor/cmn/nlog"
)

// NameSuffix is appended by callers that need a name unlikely to collide
// with a user-supplied one; transport.Unhandle uses it to form the entry
// name it unregisters.
const NameSuffix = ".hk"

type (
	// CleanupFunc runs when its entry fires; the returned duration becomes
	// the entry's next interval (0 means "use the same interval again").
	CleanupFunc func() time.Duration

	entry struct {
		f        CleanupFunc
		name     string
		interval time.Duration
		next     int64 // time.Now().UnixNano() of next fire
		index    int
	}

	entryHeap []*entry

	// Housekeeper runs a single goroutine that fires every registered
	// entry no earlier than its interval. One process-wide instance
	// (DefaultHK) is normally enough; tests construct their own via New.
	Housekeeper struct {
		mu      sync.Mutex
		byName  map[string]*entry
		heap    entryHeap
		addCh   chan *entry
		delCh   chan string
		stopCh  chan struct{}
		started chan struct{}
		once    sync.Once
	}
)

var DefaultHK = New()

func New() *Housekeeper {
	return &Housekeeper{
		byName:  make(map[string]*entry, 16),
		addCh:   make(chan *entry, 16),
		delCh:   make(chan string, 16),
		stopCh:  make(chan struct{}),
		started: make(chan struct{}),
	}
}

// TestInit resets the package-wide DefaultHK; tests call it before
// starting the housekeeper goroutine so state doesn't leak between runs.
func TestInit() { DefaultHK = New() }

// WaitStarted blocks until DefaultHK.Run has entered its serving loop.
func WaitStarted() { <-DefaultHK.started }

func Reg(name string, f CleanupFunc, interval time.Duration) { DefaultHK.Reg(name, f, interval) }
func Unreg(name string)                                      { DefaultHK.Unreg(name) }

func (hk *Housekeeper) Reg(name string, f CleanupFunc, interval time.Duration) {
	debug.Assert(interval > 0, "hk: non-positive interval")
	hk.addCh <- &entry{name: name, f: f, interval: interval, next: time.Now().Add(interval).UnixNano()}
}

func (hk *Housekeeper) Unreg(name string) { hk.delCh <- name }

func (hk *Housekeeper) Name() string { return "housekeeper" }

// Run serves registrations and fires due entries until Stop is called.
func (hk *Housekeeper) Run() {
	t := time.NewTicker(200 * time.Millisecond)
	defer t.Stop()
	hk.once.Do(func() { close(hk.started) })
	for {
		select {
		case e := <-hk.addCh:
			if old, ok := hk.byName[e.name]; ok {
				heap.Remove(&hk.heap, old.index)
			}
			hk.byName[e.name] = e
			heap.Push(&hk.heap, e)
		case name := <-hk.delCh:
			if e, ok := hk.byName[name]; ok {
				heap.Remove(&hk.heap, e.index)
				delete(hk.byName, name)
			}
		case <-t.C:
			hk.fireDue()
		case <-hk.stopCh:
			return
		}
	}
}

func (hk *Housekeeper) Stop(_ error) { close(hk.stopCh) }

func (hk *Housekeeper) fireDue() {
	now := time.Now().UnixNano()
	for len(hk.heap) > 0 && hk.heap[0].next <= now {
		e := hk.heap[0]
		nlog.InfoDepth(1, "hk: firing ", e.name)
		next := e.f()
		if next <= 0 {
			next = e.interval
		}
		e.next = now + int64(next)
		heap.Fix(&hk.heap, 0)
	}
}

// entryHeap implements container/heap.Interface, ordered by next fire time
// — the same min-heap-of-timers shape transport.Collector uses for idle
// connection ticks, generalized here to named periodic callbacks.
func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].next < h[j].next }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
