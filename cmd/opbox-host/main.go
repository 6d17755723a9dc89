package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/hostlog"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/serial"
)

// #region main
func main() {
	_ = godotenv.Load()

	dbPath := envOr("OPBOX_DB", "opbox_sessions.db")
	portPath := envOr("OPBOX_PORT", "")
	subject := envOr("OPBOX_SUBJECT", "unnamed")

	store, err := hostlog.NewStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

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

	sessionID, err := store.BeginSession(subject)
	if err != nil {
		log.Fatalf("failed to begin session: %v", err)
	}

	fmt.Println("OpBox host monitor ready.")
	fmt.Printf("  DB: %s | Port: %s | Session: %s\n", dbPath, orStdio(portPath), sessionID)

	go monitor(in, out, store, sessionID)

	console(out, store, sessionID)
}

// #endregion main

// #region monitor

// monitor answers the box's handshake, then decodes and records every
// event packet.
func monitor(in io.Reader, out io.Writer, store *hostlog.Store, sessionID string) {
	br := bufio.NewReader(in)

	// Wait for the box's announce byte, then acknowledge.
	for {
		b, err := br.ReadByte()
		if err != nil {
			log.Printf("[HOST] link closed before handshake: %v", err)
			return
		}
		if b == serial.HandshakeSend {
			break
		}
	}
	out.Write([]byte{serial.HandshakeAck})
	log.Printf("[HOST] handshake complete")

	dec := serial.NewDecoder(br)
	for {
		p, err := dec.Next()
		if err != nil {
			log.Printf("[HOST] link closed: %v", err)
			return
		}
		if err := store.LogPacket(sessionID, p); err != nil {
			log.Printf("[HOST] log error: %v", err)
		}
		printPacket(p)
	}
}

func printPacket(p serial.Packet) {
	switch p.Type {
	case serial.PacketInt:
		fmt.Printf("  %-8s %d\n", p.Label, p.A)
	case serial.PacketInt2:
		fmt.Printf("  %-8s %d %d\n", p.Label, p.A, p.B)
	default:
		fmt.Printf("  %-8s %q\n", p.Label, string(p.Data))
	}
}

// #endregion monitor

// #region console

// console reads operator input and sends (label, value) commands to the box.
func console(out io.Writer, store *hostlog.Store, sessionID string) {
	rl, err := readline.New("opbox> ")
	if err != nil {
		log.Fatalf("readline: %v", err)
	}
	defer rl.Close()

	enc := serial.NewEncoder(out)

	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return
		case "events":
			limit := 20
			if len(fields) > 1 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					limit = n
				}
			}
			evs, err := store.ListEvents(sessionID, limit)
			if err != nil {
				log.Printf("[HOST] list error: %v", err)
				continue
			}
			for _, ev := range evs {
				fmt.Printf("  %6d %-8s a=%d b=%d %s\n", ev.ID, ev.Label, ev.A, ev.B, ev.CharData)
			}
		case "counts":
			counts, err := store.CountByLabel(sessionID)
			if err != nil {
				log.Printf("[HOST] count error: %v", err)
				continue
			}
			for label, n := range counts {
				fmt.Printf("  %-8s %d\n", label, n)
			}
		default:
			value := ""
			if len(fields) > 1 {
				value = fields[1]
			}
			enc.Char(fields[0], []byte(value)...)
		}
	}
}

// #endregion console

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orStdio(port string) string {
	if port == "" {
		return "stdio"
	}
	return port
}

// #endregion helpers
