package main

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/insight"
	"github.com/temoto/insight/helpers/cli"
	"github.com/temoto/insight/log2"
	"github.com/temoto/insight/uart"
)

const usage = `syntax: commands separated by whitespace
(registry, only while disabled)
- add:T:NAME   register new variable NAME of type T (b u8 u16 u32 u64 i8 i16 i32 i64 f d)
- NAME=VALUE   set variable value
- reset        drop all variables and statistics
- show         print layout and current values

(transmission)
- enable       send header, start transmission
- enable+sync  same, next tick transmits immediately
- disable      send terminate
- pause        suppress periodic transmission
- resume       end pause, resume+sync transmits on next tick
- tx           transmit one data frame now
- tick         call periodic hook with current clock
- period=N     transmit period in milliseconds
- stat         print counters

(meta)
- sN       pause N milliseconds
- log=yes  enable debug logging
- log=no   disable debug logging
- loop=N   repeat N times all commands on this line
`

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	devicePath := cmdline.String("device", "", "serial device, empty only prints frames")
	driver := cmdline.String("driver", uart.DriverFile, "file|serial")
	baud := cmdline.Int("baud", 115200, "")
	framing := cmdline.String("framing", "length", "length|escaped")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	var port *uart.Port
	if *devicePath != "" {
		var err error
		if port, err = uart.Open(*driver, *devicePath, *baud); err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
	}
	f, err := insight.ParseFraming(*framing)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}

	s := newSession(port, log)
	s.in.SetFraming(f)
	cli.MainLoop("insight-cli", newExecutor(s), newCompleter(s), s.close)
}

func newCompleter(s *session) func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "add:", Description: "add:T:NAME register variable"},
		{Text: "enable", Description: "send header, start"},
		{Text: "enable+sync", Description: "start, transmit on next tick"},
		{Text: "disable", Description: "send terminate"},
		{Text: "pause", Description: "suppress periodic transmission"},
		{Text: "resume", Description: "end pause"},
		{Text: "resume+sync", Description: "end pause, transmit on next tick"},
		{Text: "tx", Description: "transmit data frame now"},
		{Text: "tick", Description: "periodic hook with current clock"},
		{Text: "period=", Description: "period=N milliseconds"},
		{Text: "reset", Description: "drop all variables"},
		{Text: "show", Description: "layout and values"},
		{Text: "stat", Description: "counters"},
		{Text: "sN", Description: "pause for N ms"},
		{Text: "loop=N", Description: "repeat line N times"},
	}

	return func(d prompt.Document) []prompt.Suggest {
		all := suggests
		for _, v := range s.in.Layout() {
			all = append(all, prompt.Suggest{Text: v.Name + "=", Description: "set " + v.Type.String()})
		}
		return prompt.FilterFuzzy(all, d.GetWordBeforeCursor(), true)
	}
}

func newExecutor(s *session) func(string) {
	return func(line string) {
		a, err := parseLine(s, line)
		if err != nil {
			log.Error(errors.ErrorStack(err))
			return
		}
		if err = a(); err != nil {
			log.Error(errors.ErrorStack(err))
		}
	}
}

type action func() error

func seq(as []action) action {
	return func() error {
		for _, a := range as {
			if err := a(); err != nil {
				return err
			}
		}
		return nil
	}
}

func parseLine(s *session, line string) (action, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return func() error { return nil }, nil
	}

	// pre-parse special commands
	loopn := uint(0)
	wordsRest := make([]string, 0, len(words))
	for _, word := range words {
		switch {
		case word == "help":
			return func() error { log.Info(usage); return nil }, nil
		case strings.HasPrefix(word, "loop="):
			if loopn != 0 {
				return nil, errors.Errorf("multiple loop commands, expected at most one")
			}
			i, err := strconv.ParseUint(word[5:], 10, 32)
			if err != nil {
				return nil, errors.Annotatef(err, "word=%s", word)
			}
			loopn = uint(i)
		default:
			wordsRest = append(wordsRest, word)
		}
	}

	as := make([]action, 0, len(wordsRest))
	for _, word := range wordsRest {
		a, err := parseCommand(s, word)
		if err != nil {
			return nil, err
		}
		as = append(as, a)
	}
	tx := seq(as)

	if loopn != 0 {
		return func() error {
			for i := uint(0); i < loopn; i++ {
				if err := tx(); err != nil {
					return errors.Annotatef(err, "loop=%d", i)
				}
			}
			return nil
		}, nil
	}
	return tx, nil
}

func parseCommand(s *session, word string) (action, error) {
	switch {
	case word == "log=yes":
		return func() error { log.SetLevel(log2.LDebug); return nil }, nil
	case word == "log=no":
		return func() error { log.SetLevel(log2.LError); return nil }, nil
	case word == "enable":
		return func() error { return s.in.Enable(true, false) }, nil
	case word == "enable+sync":
		return func() error { return s.in.Enable(true, true) }, nil
	case word == "disable":
		return func() error { return s.in.Enable(false, false) }, nil
	case word == "pause":
		return func() error { s.in.Pause(true, false); return nil }, nil
	case word == "resume":
		return func() error { s.in.Pause(false, false); return nil }, nil
	case word == "resume+sync":
		return func() error { s.in.Pause(false, true); return nil }, nil
	case word == "tx":
		return s.in.Transmit, nil
	case word == "tick":
		return s.tick, nil
	case word == "reset":
		return s.reset, nil
	case word == "show":
		return s.show, nil
	case word == "stat":
		return s.stat, nil
	case strings.HasPrefix(word, "period="):
		i, err := strconv.ParseUint(word[7:], 10, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "word=%s", word)
		}
		return func() error { s.in.SetPeriod(uint32(i)); return nil }, nil
	case strings.HasPrefix(word, "add:"):
		parts := strings.SplitN(word, ":", 3)
		if len(parts) != 3 {
			return nil, errors.NotValidf("word=%s expected add:T:NAME", word)
		}
		t, ok := insight.ParseTag(parts[1])
		if !ok {
			return nil, errors.NotValidf("type=%s", parts[1])
		}
		return func() error { return s.add(t, parts[2]) }, nil
	case strings.Contains(word, "="):
		parts := strings.SplitN(word, "=", 2)
		return func() error { return s.set(parts[0], parts[1]) }, nil
	case word[0] == 's':
		i, err := strconv.ParseUint(word[1:], 10, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "word=%s", word)
		}
		return func() error { time.Sleep(time.Duration(i) * time.Millisecond); return nil }, nil
	default:
		return nil, errors.Errorf("error: invalid command: '%s'", word)
	}
}
