// Package cli runs a line oriented command loop,
// interactive prompt on a terminal or batch over piped stdin.
package cli

import (
	"bytes"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

// MainLoop returns when input ends. onExit runs on termination signals
// before process exit, use it to leave hardware in a sane state.
func MainLoop(tag string, exec func(line string), complete func(d prompt.Document) []prompt.Suggest, onExit func()) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		for range signalCh {
			if onExit != nil {
				onExit()
			}
			os.Exit(1)
		}
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(exec, complete,
			prompt.OptionTitle(tag),
			prompt.OptionPrefix(tag+"> "),
		).Run()
	} else {
		stdinAll, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal(err)
		}
		for _, lineb := range bytes.Split(stdinAll, []byte{'\n'}) {
			line := string(bytes.TrimSpace(lineb))
			exec(line)
		}
	}
	if onExit != nil {
		onExit()
	}
}
