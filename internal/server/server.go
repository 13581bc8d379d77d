// Package server provides the TCP control surface for pulsemeterd.
//
// The protocol is line-based: one command per line, responses are either a
// single "OK ..." / "ERR <code> <message>" line, or "OK" followed by a body
// terminated with a lone "." line. It is a local operator surface, not a
// public API; pulsectl is the intended client.
//
// Commands:
//
//	STATUS           counters and rollover position
//	CHANNELS         configured channels
//	REPORT [ch]      bucket report for all channels or one
//	STATS            pulse gap percentiles per channel
//	PULSE <ch> [n]   inject n pulses (default 1) on a channel
//	QUIT             close the connection
package server

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/qpulse/pulsemeter/internal/clock"
	"github.com/qpulse/pulsemeter/internal/errors"
	"github.com/qpulse/pulsemeter/internal/logging"
	"github.com/qpulse/pulsemeter/internal/meter"
	"github.com/qpulse/pulsemeter/internal/render"
	"github.com/qpulse/pulsemeter/internal/stats"
)

var log = logging.Component("server")

// Config holds server dependencies and settings.
type Config struct {
	Listen      string
	ReadTimeout time.Duration

	Set    *meter.Set
	Engine *meter.Engine
	Stats  *stats.Collector

	// ChannelNames maps channel index to its configured name.
	ChannelNames []string

	// Now supplies the calendar position used for report cursors.
	Now func() time.Time
}

// Server accepts control connections.
type Server struct {
	cfg Config

	ln net.Listener

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// New creates a Server. Call Start to begin listening.
func New(cfg Config) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{
		cfg:      cfg,
		conns:    make(map[net.Conn]struct{}),
		shutdown: make(chan struct{}),
	}
}

// Start binds the listener and begins accepting connections.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop()

	log.Info("control server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, for tests that listen on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown closes the listener and all open connections.
func (s *Server) Shutdown() {
	s.once.Do(func() { close(s.shutdown) })

	if s.ln != nil {
		s.ln.Close()
	}

	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	log.Info("control server stopped")
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
			}
			log.Warn("accept failed", "error", err)
			return
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)

	for {
		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit := s.dispatch(w, line)
		if err := w.Flush(); err != nil {
			return
		}
		if quit {
			return
		}
	}
}

// dispatch executes one command line. Returns true when the connection
// should close.
func (s *Server) dispatch(w *bufio.Writer, line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	switch cmd {
	case "QUIT":
		writeOK(w, "bye")
		return true
	case "STATUS":
		s.cmdStatus(w)
	case "CHANNELS":
		s.cmdChannels(w)
	case "REPORT":
		s.cmdReport(w, args)
	case "STATS":
		s.cmdStats(w)
	case "PULSE":
		s.cmdPulse(w, args)
	default:
		writeErr(w, errors.CodeInvalidRequest, fmt.Sprintf("unknown command %q", cmd))
	}
	return false
}

func (s *Server) cmdStatus(w *bufio.Writer) {
	writeOK(w, "")
	fmt.Fprintf(w, "channels=%d\n", s.cfg.Set.Len())
	fmt.Fprintf(w, "pulses=%d\n", s.cfg.Set.Pulses())
	fmt.Fprintf(w, "wraps=%d\n", s.cfg.Set.Wraps())
	fmt.Fprintf(w, "last_minute=%d\n", s.cfg.Engine.LastMinute())
	fmt.Fprintf(w, "now=%s\n", clock.FromTime(s.cfg.Now()).String())
	endBody(w)
}

func (s *Server) cmdChannels(w *bufio.Writer) {
	writeOK(w, "")
	for i := 0; i < s.cfg.Set.Len(); i++ {
		name := ""
		if i < len(s.cfg.ChannelNames) {
			name = s.cfg.ChannelNames[i]
		}
		fmt.Fprintf(w, "%d %s\n", i, name)
	}
	endBody(w)
}

func (s *Server) cmdReport(w *bufio.Writer, args []string) {
	cur := clock.FromTime(s.cfg.Now()).Cursor()

	var snaps []meter.Snapshot
	if len(args) > 0 {
		ch, err := strconv.Atoi(args[0])
		if err != nil {
			writeErr(w, errors.CodeInvalidRequest, "channel must be an integer")
			return
		}
		snap, err := s.cfg.Set.Snapshot(ch)
		if err != nil {
			writeErr(w, errors.ErrorToCode(err), err.Error())
			return
		}
		snaps = []meter.Snapshot{snap}
	} else {
		snaps = s.cfg.Set.Snapshots()
	}

	writeOK(w, "")
	r := render.New(w)
	r.SetColor(false)
	if err := r.Report(snaps, cur); err != nil {
		log.Warn("report write failed", "error", err)
	}
	endBody(w)
}

func (s *Server) cmdStats(w *bufio.Writer) {
	if s.cfg.Stats == nil {
		writeErr(w, errors.CodeNotReady, "statistics not enabled")
		return
	}
	writeOK(w, "")
	for _, r := range s.cfg.Stats.Results() {
		fmt.Fprintf(w, "%d count=%d min=%.3f max=%.3f avg=%.3f p50=%.3f p90=%.3f p95=%.3f p99=%.3f\n",
			r.Channel, r.Count, r.Min, r.Max, r.Avg, r.P50, r.P90, r.P95, r.P99)
	}
	endBody(w)
}

func (s *Server) cmdPulse(w *bufio.Writer, args []string) {
	if len(args) < 1 {
		writeErr(w, errors.CodeInvalidRequest, "usage: PULSE <channel> [count]")
		return
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil {
		writeErr(w, errors.CodeInvalidRequest, "channel must be an integer")
		return
	}

	n := 1
	if len(args) > 1 {
		n, err = strconv.Atoi(args[1])
		if err != nil || n < 1 {
			writeErr(w, errors.CodeInvalidRequest, "count must be a positive integer")
			return
		}
	}

	for i := 0; i < n; i++ {
		if err := s.cfg.Set.Increment(ch); err != nil && !errors.IsWarning(err) {
			writeErr(w, errors.ErrorToCode(err), err.Error())
			return
		}
	}
	writeOK(w, strconv.Itoa(n))
}

func writeOK(w *bufio.Writer, detail string) {
	if detail == "" {
		fmt.Fprintln(w, "OK")
		return
	}
	fmt.Fprintf(w, "OK %s\n", detail)
}

func writeErr(w *bufio.Writer, code int32, msg string) {
	log.Debug("command rejected", "code", errors.CodeName(code), "reason", msg)
	fmt.Fprintf(w, "ERR %d %s\n", code, msg)
}

func endBody(w *bufio.Writer) {
	fmt.Fprintln(w, ".")
}
