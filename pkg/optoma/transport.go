package optoma

import (
	"bytes"
	"time"

	"go.bug.st/serial"
	"go.uber.org/atomic"
)

// maxLineSize bounds a single response. Projector answers are a few bytes long.
const maxLineSize = 256

// Port abstracts the subset of go.bug.st/serial.Port used by the link.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// Opener opens the serial device at path.
type Opener func(path string, baudRate int) (Port, error)

// OpenSerialPort opens path as an 8N1 line using go.bug.st/serial.
func OpenSerialPort(path string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// AvailablePorts lists the serial devices present on the host.
func AvailablePorts() ([]string, error) {
	return serial.GetPortsList()
}

// writeWithTimeout writes data in full or fails with ErrWriteTimeout. Closing
// the port does not interrupt a write already blocked in the driver, so the
// writer goroutine may outlive the timeout until the driver accepts or rejects
// the bytes. Once abandoned it issues no further writes.
func writeWithTimeout(port Port, data []byte, timeout time.Duration) error {
	done := make(chan error, 1)
	var abandoned atomic.Bool
	go func() {
		written := 0
		for written < len(data) {
			if abandoned.Load() {
				done <- ErrWriteTimeout
				return
			}
			n, err := port.Write(data[written:])
			if err != nil {
				done <- err
				return
			}
			if n == 0 {
				done <- ErrShortWrite
				return
			}
			written += n
		}
		done <- nil
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		abandoned.Store(true)
		return ErrWriteTimeout
	}
}

// readLine reads up to and including the first carriage return. A read that
// returns no data means the port read timeout elapsed; whatever arrived before
// that is returned as the answer, and ErrReadTimeout only when nothing did.
func readLine(port Port, timeout time.Duration) (string, error) {
	buf := make([]byte, 64)
	var line []byte
	deadline := time.Now().Add(timeout)

	for {
		n, err := port.Read(buf)
		if err != nil {
			return string(line), err
		}
		if n == 0 {
			return partial(line)
		}

		chunk := buf[:n]
		if idx := bytes.IndexByte(chunk, LINE_DELIMITER); idx >= 0 {
			line = append(line, chunk[:idx+1]...)
			return string(line), nil
		}
		line = append(line, chunk...)
		if len(line) > maxLineSize {
			return "", ErrLineTooLong
		}
		if time.Now().After(deadline) {
			return partial(line)
		}
	}
}

func partial(line []byte) (string, error) {
	if len(line) == 0 {
		return "", ErrReadTimeout
	}
	return string(line), nil
}
