package main

import (
	"bufio"
	"io"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/clock"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/hal"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/schedule"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/serial"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/trial"
)

// #region main
func main() {
	_ = godotenv.Load()

	portPath := envOr("OPBOX_PORT", "")

	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	if portPath != "" {
		port, err := os.OpenFile(portPath, os.O_RDWR, 0)
		if err != nil {
			log.Fatalf("open port %s: %v", portPath, err)
		}
		defer port.Close()
		in, out = port, port
	}

	// One reader goroutine owns the inbound byte stream; the handshake polls
	// it non-blocking, the packet decoder consumes it blocking afterwards.
	bytesCh := make(chan byte, 256)
	go func() {
		br := bufio.NewReader(in)
		for {
			b, err := br.ReadByte()
			if err != nil {
				close(bytesCh)
				return
			}
			bytesCh <- b
		}
	}()

	enc := serial.NewEncoder(out)
	clk := clock.NewMonotonic()

	log.Printf("[OPBOX] waiting for host handshake")
	serial.Handshake(
		&pollByteReader{ch: bytesCh},
		out,
		clk.NowMillis,
		func(untilMS int64) {
			for clk.NowMillis() < untilMS {
				time.Sleep(time.Millisecond)
			}
		},
	)
	log.Printf("[OPBOX] host connected")

	cmdCh := make(chan config.Command, 32)
	go func() {
		dec := serial.NewDecoder(&blockByteReader{ch: bytesCh})
		for {
			p, err := dec.Next()
			if err != nil {
				log.Printf("[OPBOX] host link closed: %v", err)
				close(cmdCh)
				return
			}
			cmdCh <- config.Command{Label: p.Label, Value: string(p.Data)}
		}
	}()

	subj := config.DefaultSubject()
	rew := config.DefaultReward()
	sched := schedule.NewScheduler(&subj, rand.New(rand.NewSource(time.Now().UnixNano())))

	// Pin bring-up is board-specific and lives outside this binary; the
	// simulated bank stands in until a GPIO backend is attached.
	bank, _ := hal.SimBank()
	inputs := &hal.SimInputs{}

	ctl := trial.NewController(clk, &subj, &rew, sched, bank, inputs, enc, &chanSource{ch: cmdCh})

	log.Printf("[OPBOX] controller ready, awaiting session_start")
	for ctl.Session() != trial.Halted {
		ctl.Step()
		time.Sleep(time.Millisecond)
	}
	log.Printf("[OPBOX] session halted, exiting")
}

// #endregion main

// #region adapters

// pollByteReader returns io.EOF when no byte is buffered, which is what the
// handshake's retry loop needs.
type pollByteReader struct {
	ch chan byte
}

func (r *pollByteReader) ReadByte() (byte, error) {
	select {
	case b, ok := <-r.ch:
		if !ok {
			return 0, io.ErrUnexpectedEOF
		}
		return b, nil
	default:
		return 0, io.EOF
	}
}

// blockByteReader blocks until a byte arrives, for the packet decoder.
type blockByteReader struct {
	ch chan byte
}

func (r *blockByteReader) ReadByte() (byte, error) {
	b, ok := <-r.ch
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

// chanSource adapts the decoder goroutine's channel to the controller's
// one-command-per-iteration source.
type chanSource struct {
	ch chan config.Command
}

func (s *chanSource) Poll() (config.Command, bool) {
	select {
	case cmd, ok := <-s.ch:
		if !ok {
			return config.Command{}, false
		}
		return cmd, true
	default:
		return config.Command{}, false
	}
}

// #endregion adapters

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
