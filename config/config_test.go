package config

import (
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/insight"
	"github.com/temoto/insight/log2"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, *Config)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, c *Config) {
			assert.Equal(t, uint32(insight.DefaultPeriodMs), c.PeriodMs())
			assert.Equal(t, insight.DefaultPreamble(), c.Preamble())
			assert.Equal(t, DefaultBaud, c.Uart.BaudOrDefault())
			assert.Equal(t, "insight/data", c.Tele.Topic("data"))
			f, err := c.Framing()
			assert.NoError(t, err)
			assert.Equal(t, insight.FramingLength, f)
		}, ""},

		{"insight", `
insight {
	period_ms = 250
	max_slots = 8
	name_buffer = 64
	framing = "escaped"
	preamble = "board7;"
}`, func(t testing.TB, c *Config) {
			assert.Equal(t, uint32(250), c.PeriodMs())
			assert.Equal(t, insight.Limits{MaxSlots: 8, NameBufferSize: 64}, c.Limits())
			assert.Equal(t, "board7;", c.Preamble())
			f, err := c.Framing()
			assert.NoError(t, err)
			assert.Equal(t, insight.FramingEscaped, f)
		}, ""},

		{"uart-tele", `
log_debug = true
uart { driver = "serial" device = "/dev/ttyUSB0" baud = 9600 }
tele {
	enable = true
	mqtt_broker = "tcp://broker:1883"
	topic_prefix = "plant/7/"
}`, func(t testing.TB, c *Config) {
			assert.True(t, c.LogDebug)
			assert.Equal(t, "serial", c.Uart.Driver)
			assert.Equal(t, 9600, c.Uart.BaudOrDefault())
			assert.True(t, c.Tele.Enable)
			assert.Equal(t, "plant/7/header", c.Tele.Topic("header"))
		}, ""},

		{"include-optional", `
include "period-50" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, uint32(50), c.PeriodMs())
			}, ""},

		{"include-overwrites", `
insight { period_ms = 1 }
include "period-50" {}`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, uint32(50), c.PeriodMs())
			}, ""},

		{"error-syntax", `hello`, nil, "key 'hello' expected start of object"},
		{"error-include-required", `include "non-exist" {}`, nil, "config required name=non-exist"},
		{"error-include-loop", `include "include-loop" {}`, nil, "config include loop: from=include-loop include=include-loop"},
		{"error-framing", `insight { framing = "morse" }`, nil, "framing=morse not valid"},
		{"error-preamble", `insight { preamble = "x" }`, nil, "must end with ';'"},
		{"error-driver", `uart { driver = "usb" }`, nil, "uart.driver=usb not supported"},
		{"error-tele-broker", `tele { enable = true }`, nil, "without tele.mqtt_broker"},
	}
	mkCheck := func(c Case) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			log := log2.NewTest(t, log2.LDebug)
			fs := NewMockFullReader(map[string]string{
				"test-inline":  c.input,
				"period-50":    "insight{period_ms=50}",
				"include-loop": `include "include-loop" {}`,
			})
			cfg, err := ReadConfig(log, fs, "test-inline")
			if c.expectErr == "" {
				require.NoError(t, err, errors.ErrorStack(err))
				if c.check != nil {
					c.check(t, cfg)
				}
			} else {
				require.Error(t, err)
				if !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
		}
	}
	for _, c := range cases {
		t.Run(c.name, mkCheck(c))
	}
}

func TestConfigure(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LDebug)
	fs := NewMockFullReader(map[string]string{
		"main": `insight { period_ms = 20 framing = "legacy" }`,
	})
	c := MustReadConfig(log, fs, "main")
	in := insight.New(nil, c.Limits())
	require.NoError(t, c.Configure(in))
	assert.Equal(t, uint32(20), in.Period())
	assert.Equal(t, insight.FramingEscaped, in.Framing())
	assert.Equal(t, insight.DefaultLimits(), in.Limits())
}

func TestFunctionalBundled(t *testing.T) {
	t.Logf("this test needs OS open|read|stat access to file `../insight.hcl`")

	log := log2.NewTest(t, log2.LDebug)
	c := MustReadConfig(log, NewOsFullReader(), "../insight.hcl")
	assert.NoError(t, c.Validate())
}
