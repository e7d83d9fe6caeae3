// Package nlog is the monitor's logger: severity-routed, timestamped,
// size-rotated, safe to call concurrently from every session's callback
// lane. It keeps a familiar API shape (Infof/Warningf/Errorf, Flush,
// SetLogDirRole/SetTitle) while trimming the double-buffer/pool plumbing
// a high-throughput byte-range logger needs to stay allocation-free on
// the hot path: this monitor's log volume (one line per passenger event
// or quiet-route request) does not need it.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livetransit/network-monitor/cmn/mono"
)

// MaxSize is the rotation threshold, in bytes, for each severity's log file.
var MaxSize int64 = 4 * 1024 * 1024

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = "IWE"

type sink struct {
	mu      sync.Mutex
	file    *os.File
	written int64
	sev     severity
	erred   bool
	last    atomic.Int64
}

var (
	sinks   = [3]*sink{{sev: sevInfo}, {sev: sevWarn}, {sev: sevErr}}
	onceDir sync.Once

	logDir       string
	aisrole      string
	title        string
	toStderr     bool
	alsoToStderr bool

	host, _ = os.Hostname()
	pid     = os.Getpid()
)

// InitFlags registers the -logtostderr/-alsologtostderr flags on flset.
func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", false, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
}

func SetLogDirRole(dir, role string) { logDir, aisrole = dir, role }
func SetTitle(s string)              { title = s }

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth+1, "", args...) }
func Infoln(args ...any)                  { log(sevInfo, 1, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 1, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 1, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 1, format, args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth+1, "", args...) }
func Errorln(args ...any)                 { log(sevErr, 1, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 1, format, args...) }

func InfoLogName() string { return sname() + ".INFO" }
func ErrLogName() string  { return sname() + ".ERROR" }

// Flush syncs every open log file to disk. Pass true on process exit to
// also close the files.
func Flush(exit ...bool) {
	ex := len(exit) > 0 && exit[0]
	for _, s := range sinks {
		s.mu.Lock()
		if s.file != nil {
			s.file.Sync()
			if ex {
				s.file.Close()
				s.file = nil
			}
		}
		s.mu.Unlock()
	}
}

func log(sev severity, depth int, format string, args ...any) {
	line := render(sev, depth+1, format, args...)

	switch {
	case !flag.Parsed():
		os.Stderr.WriteString("Error: logging before flag.Parse: ")
		os.Stderr.WriteString(line)
	case toStderr:
		os.Stderr.WriteString(line)
	default:
		if alsoToStderr || sev >= sevErr {
			os.Stderr.WriteString(line)
		}
		// warnings and errors are duplicated into the INFO stream too,
		// so a single INFO file remains the complete narrative of the
		// process.
		if sev >= sevWarn {
			sinks[sevErr].write(line)
		}
		sinks[sevInfo].write(line)
	}
}

func (s *sink) write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logDir == "" {
		return
	}
	if s.file == nil {
		if err := s.open(); err != nil {
			return
		}
	}
	n, err := s.file.WriteString(line)
	if err != nil {
		s.erred = true
		return
	}
	s.written += int64(n)
	s.last.Store(mono.NanoTime())
	if s.written >= MaxSize {
		s.file.Close()
		s.file = nil
		s.written = 0
	}
}

func (s *sink) open() error {
	onceDir.Do(func() {
		if logDir != "" {
			os.MkdirAll(logDir, 0o755)
		}
	})
	name, _ := logfname(sevName[s.sev], time.Now())
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	s.file = f
	hdr := fmt.Sprintf("Started up at %s, host %s, %s for %s/%s\n",
		time.Now().Format("2006/01/02 15:04:05"), host, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	f.WriteString(hdr)
	if title != "" {
		f.WriteString(title + "\n")
	}
	return nil
}

var sevName = map[severity]string{sevInfo: "INFO", sevWarn: "WARNING", sevErr: "ERROR"}

func sname() string {
	if aisrole != "" {
		return aisrole
	}
	return "network-monitor"
}

func logfname(tag string, t time.Time) (name, link string) {
	s := sname()
	name = fmt.Sprintf("%s.%s.%s.%02d%02d-%02d%02d%02d.%d",
		s, host, tag, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), pid)
	return name, s + "." + tag
}

func render(sev severity, depth int, format string, args ...any) string {
	var b strings.Builder
	b.WriteByte(sevChar[sev])
	b.WriteByte(' ')
	b.WriteString(time.Now().Format("15:04:05.000000"))
	b.WriteByte(' ')
	if _, fn, ln, ok := runtime.Caller(depth + 1); ok {
		if idx := strings.LastIndexByte(fn, filepath.Separator); idx >= 0 {
			fn = fn[idx+1:]
		}
		b.WriteString(fn)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(ln))
		b.WriteByte(' ')
	}
	if format == "" {
		fmt.Fprintln(&b, args...)
	} else {
		fmt.Fprintf(&b, format, args...)
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
