// optomactl talks to a projector directly over its serial port. It is meant
// for bench testing the wiring before running the bridge.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/berfenger/optoma2mqtt/pkg/optoma"

	"go.uber.org/zap"
)

func main() {
	device := flag.String("device", "/dev/ttyUSB0", "serial device path")
	baud := flag.Int("baud", optoma.DEFAULT_BAUD_RATE, "baud rate")
	cmd := flag.String("cmd", "", "single command to send (get_state, info, power_on, power_off); if empty, read commands from stdin")
	status := flag.Bool("status", false, "refresh the projector and print its status as JSON")
	list := flag.Bool("list", false, "list serial ports and exit")
	readTimeout := flag.Duration("read-timeout", optoma.DEFAULT_READ_TIMEOUT, "read timeout per response")
	writeTimeout := flag.Duration("write-timeout", optoma.DEFAULT_WRITE_TIMEOUT, "write timeout per command")
	verbose := flag.Bool("v", false, "log every exchange")

	flag.Parse()

	if *list {
		ports, err := optoma.AvailablePorts()
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	logger := zap.NewNop()
	if *verbose {
		logger = zap.Must(zap.NewDevelopment())
	}
	defer logger.Sync()

	link := optoma.NewLink(optoma.LinkConfig{
		Path:         *device,
		BaudRate:     *baud,
		ReadTimeout:  *readTimeout,
		WriteTimeout: *writeTimeout,
	}, logger, optoma.WithInstrument(optoma.InstrumentFunc(func(cmd optoma.Command, d time.Duration, err error) {
		if *verbose {
			fmt.Fprintf(os.Stderr, "%s took %s (err=%v)\n", cmd, d.Round(time.Millisecond), err)
		}
	})))

	if *status {
		link.Refresh()
		out, err := json.MarshalIndent(link.Status(), "", "  ")
		if err != nil {
			log.Fatalf("status: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	if *cmd != "" {
		// Single command mode
		if err := run(link, *cmd); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Interactive mode: read commands from stdin line by line.
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprintln(os.Stderr, "Entering interactive mode. Type get_state, info, power_on or power_off, Ctrl+D to exit.")
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				log.Printf("stdin error: %v", err)
			}
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := run(link, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func run(link *optoma.Link, name string) error {
	cmd, err := optoma.ParseCommand(name)
	if err != nil {
		return err
	}
	resp, err := link.Exchange(cmd)
	if err != nil {
		return fmt.Errorf("exchange: %w", err)
	}
	fmt.Printf("%q\n", resp)
	fmt.Println(describe(cmd, resp))
	return nil
}

func describe(cmd optoma.Command, resp string) string {
	switch cmd {
	case optoma.CmdGetState:
		if state, ok := optoma.ParseState(resp); ok {
			return "power: " + state.String()
		}
		return "power: unrecognized answer"
	case optoma.CmdInfo:
		info, err := optoma.ParseInfo(resp)
		if err != nil {
			return "info: " + err.Error()
		}
		return fmt.Sprintf("lamp hours: %s, input source: %s", info.LampHours, info.Source)
	default:
		return "sent"
	}
}
