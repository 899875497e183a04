// insight-dump prints frames received from a serial port or stdin.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/insight"
	"github.com/temoto/insight/decode"
	"github.com/temoto/insight/helpers"
	"github.com/temoto/insight/log2"
	"github.com/temoto/insight/uart"
)

var log = log2.NewStderr(log2.LInfo)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	devicePath := cmdline.String("device", "-", "serial device, - reads stdin")
	driver := cmdline.String("driver", uart.DriverSerial, "file|serial")
	baud := cmdline.Int("baud", 115200, "")
	timeoutMs := cmdline.Int("timeout", 0, "serial read timeout ms, 0 uses default")
	framing := cmdline.String("framing", "length", "length|escaped")
	raw := cmdline.Bool("raw", false, "print data payload as hex")
	debug := cmdline.Bool("debug", false, "")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)
	if *debug {
		log.SetLevel(log2.LDebug)
	}

	f, err := insight.ParseFraming(*framing)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	var port *uart.Port
	if *devicePath == "-" {
		port = uart.NewNullPort(os.Stdin, nil)
	} else {
		timeout := helpers.IntMillisecondDefault(*timeoutMs, uart.DefaultTimeout)
		if port, err = uart.OpenTimeout(*driver, *devicePath, *baud, timeout); err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
	}
	defer port.Close()

	if err = dump(decode.NewDecoder(port, f), os.Stdout, *raw); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

// dump returns nil at end of input.
func dump(d *decode.Decoder, w io.Writer, raw bool) error {
	for {
		frame, err := d.Next()
		switch cause := errors.Cause(err); {
		case err == nil:
		case cause == io.EOF:
			log.Debugf("end of input skipped=%d", d.Skipped())
			return nil
		case uart.IsTimeout(err):
			continue
		case cause == decode.ErrNoLayout, cause == decode.ErrLengthMismatch, cause == decode.ErrBadHeader:
			log.Error(err)
			continue
		default:
			return err
		}

		switch frame.Kind {
		case decode.KindHeader:
			fmt.Fprintf(w, "header %s\n", frame.Layout)
		case decode.KindTerminate:
			fmt.Fprintf(w, "terminate\n")
		case decode.KindData:
			if raw {
				fmt.Fprintf(w, "data %x\n", frame.Payload)
				continue
			}
			s, err := frame.Layout.Format(frame.Payload)
			if err != nil {
				log.Error(err)
				continue
			}
			fmt.Fprintf(w, "data %s\n", s)
		}
	}
}
