// Package console exposes the operator command surface: a newline-delimited
// text protocol with four case-insensitive commands, in the spirit of the
// serial consoles these relay boards usually ship with.
package console

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/misting-controller/internal/scheduler"
)

// maxCommandLen bounds a command token; longer lines are rejected outright.
const maxCommandLen = 31

type Console struct {
	sched *scheduler.Scheduler
}

func New(sched *scheduler.Scheduler) *Console {
	return &Console{sched: sched}
}

// Dispatch executes one command line and returns the response text. An
// empty return means the line was blank and deserves no response.
func (c *Console) Dispatch(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if len(line) > maxCommandLen {
		return "ERROR: Unknown command"
	}

	switch strings.ToUpper(line) {
	case "ENABLE":
		c.sched.SetEnabled(true)
		return "OK"
	case "DISABLE":
		c.sched.SetEnabled(false)
		return "OK"
	case "FORCE_TRIGGER":
		if err := c.sched.ForceTrigger(); err != nil {
			return fmt.Sprintf("ERROR: %s", err)
		}
		return "OK"
	case "STATUS":
		return strings.TrimRight(c.sched.RenderStatus(), "\n")
	default:
		return "ERROR: Unknown command"
	}
}

// Serve accepts console connections until the listener closes.
func (c *Console) Serve(ln net.Listener) {
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("Console listening")

		for {
			conn, err := ln.Accept()
			if err != nil {
				log.Info().Err(err).Msg("Console listener closed")
				return
			}
			go c.handle(conn)
		}
	}()
}

func (c *Console) handle(conn net.Conn) {
	defer conn.Close()

	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Console session opened")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		resp := c.Dispatch(scanner.Text())
		if resp == "" {
			continue
		}
		if _, err := io.WriteString(conn, resp+"\n"); err != nil {
			return
		}
	}
}
