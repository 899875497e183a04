// insight-demo streams a few synthetic variables, useful to check host tools and wiring.
package main

import (
	"flag"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/insight"
	"github.com/temoto/insight/config"
	"github.com/temoto/insight/helpers"
	"github.com/temoto/insight/log2"
	"github.com/temoto/insight/tele"
	"github.com/temoto/insight/uart"
)

var log = log2.NewStderr(log2.LInfo)

type sinkCloser interface {
	insight.Sink
	Close() error
}

type teleSink struct {
	*tele.Sink
	m *tele.Mqtt
}

func (self teleSink) Close() error { return self.m.Close() }

type demo struct {
	start   time.Time
	uptime  uint32
	counter uint16
	sine    float32
	ramp    float64
	odd     bool
	step    int8
}

func (self *demo) register(in *insight.Insight) error {
	for _, v := range []struct {
		ptr  interface{}
		name string
	}{
		{&self.uptime, "uptime_ms"},
		{&self.counter, "counter"},
		{&self.sine, "sine"},
		{&self.ramp, "ramp"},
		{&self.odd, "odd"},
		{&self.step, "step"},
	} {
		if err := in.Add(v.ptr, v.name); err != nil {
			return errors.Annotatef(err, "add name=%s", v.name)
		}
	}
	return nil
}

func (self *demo) update(now time.Time) uint32 {
	self.uptime = helpers.Millis32(self.start, now)
	self.counter++
	self.sine = float32(math.Sin(float64(self.uptime) / 1000))
	self.ramp = math.Mod(float64(self.uptime)/100, 100)
	self.odd = self.counter%2 == 1
	self.step = int8(self.counter)
	return self.uptime
}

func main() {
	flagConfig := flag.String("config", "insight.hcl", "")
	flagSink := flag.String("sink", "", "uart|tele|stdout, empty selects by config tele.enable")
	flagLoop := flag.Duration("loop", 10*time.Millisecond, "main loop interval, independent of transmit period")
	flagWait := flag.Duration("wait", 0, "retry opening sink for this long, e.g. USB adapter not plugged yet")
	flag.Parse()

	if sdnotify("start") {
		// systemd journal adds timestamps
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	cfg := config.MustReadConfig(log, config.NewOsFullReader(), *flagConfig)
	if cfg.LogDebug {
		log.SetLevel(log2.LDebug)
	}

	sink, err := openSinkRetry(cfg, *flagSink, *flagWait)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}

	in := insight.New(sink, cfg.Limits())
	in.SetLog(log)
	if err = cfg.Configure(in); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	d := &demo{start: time.Now()}
	if err = d.register(in); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	if err = in.Enable(true, true); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}

	a := alive.NewAlive()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		s := <-sigCh
		log.Infof("signal=%v stopping", s)
		a.Stop()
	}()

	a.Add(1)
	go run(a, in, d, *flagLoop)

	sdnotify(daemon.SdNotifyReady)
	log.Infof("streaming vars=%d payload=%d period=%dms", in.Len(), in.PayloadSize(), in.Period())
	a.Wait()

	if err = in.Enable(false, false); err != nil {
		log.Error(errors.ErrorStack(err))
	}
	stat := in.Stat()
	log.Infof("stat headers=%d frames=%d bytes=%d errors=%d", stat.Headers, stat.Frames, stat.Bytes, stat.Errors)
	if err = sink.Close(); err != nil {
		log.Error(errors.ErrorStack(err))
	}
}

func run(a *alive.Alive, in *insight.Insight, d *demo, interval time.Duration) {
	defer a.Done()
	tmr := time.NewTicker(interval)
	defer tmr.Stop()
	stopCh := a.StopChan()
	for {
		select {
		case <-stopCh:
			return
		case now := <-tmr.C:
			if _, err := in.Tick(d.update(now)); err != nil {
				log.Error(err)
			}
		}
	}
}

func openSinkRetry(cfg *config.Config, kind string, wait time.Duration) (sinkCloser, error) {
	deadline := time.Now().Add(wait)
	b := helpers.Backoff{Min: 100 * time.Millisecond, Max: 5 * time.Second, K: 2}
	for {
		sink, err := openSink(cfg, kind)
		if err == nil || errors.IsNotSupported(err) || time.Now().After(deadline) {
			return sink, err
		}
		delay := b.DelayAfter(false)
		log.Errorf("open sink retry in %v err=%v", delay, err)
		time.Sleep(delay)
	}
}

func openSink(cfg *config.Config, kind string) (sinkCloser, error) {
	if kind == "" {
		kind = "uart"
		if cfg.Tele.Enable {
			kind = "tele"
		}
	}
	switch kind {
	case "uart":
		p, err := uart.OpenTimeout(cfg.Uart.Driver, cfg.Uart.Device, cfg.Uart.BaudOrDefault(),
			helpers.IntMillisecondDefault(cfg.Uart.TimeoutMs, uart.DefaultTimeout))
		if err != nil {
			return nil, err
		}
		return p, nil
	case "tele":
		m, err := tele.NewMqtt(cfg.Tele, log)
		if err != nil {
			return nil, err
		}
		return teleSink{Sink: tele.NewSink(m, cfg.Tele), m: m}, nil
	case "stdout":
		return uart.NewNullPort(nil, os.Stdout), nil
	}
	return nil, errors.NotSupportedf("sink=%s", kind)
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
