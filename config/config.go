// Package config reads HCL configuration for insight binaries.
// Multiple sources are merged in order, later values overwrite earlier ones.
package config

import (
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/insight"
	"github.com/temoto/insight/helpers"
	"github.com/temoto/insight/log2"
)

const (
	DefaultBaud        = 115200
	DefaultTopicPrefix = "insight"
)

type Config struct {
	includeSeen map[string]struct{}
	XXX_Include []Source `hcl:"include"`

	Insight  Insight `hcl:"insight"`
	Uart     Uart    `hcl:"uart"`
	Tele     Tele    `hcl:"tele"`
	LogDebug bool    `hcl:"log_debug"`
}

type Source struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

type Insight struct {
	PeriodMs   int    `hcl:"period_ms"`
	MaxSlots   int    `hcl:"max_slots"`
	NameBuffer int    `hcl:"name_buffer"`
	Framing    string `hcl:"framing"`
	Preamble   string `hcl:"preamble"`
}

type Uart struct {
	Driver    string `hcl:"driver"`
	Device    string `hcl:"device"`
	Baud      int    `hcl:"baud"`
	TimeoutMs int    `hcl:"timeout_ms"`
}

type Tele struct { //nolint:maligned
	Enable            bool   `hcl:"enable"`
	LogDebug          bool   `hcl:"log_debug"`
	MqttBroker        string `hcl:"mqtt_broker"`
	MqttUsername      string `hcl:"mqtt_username"`
	MqttPassword      string `hcl:"mqtt_password"`
	ClientID          string `hcl:"client_id"`
	TopicPrefix       string `hcl:"topic_prefix"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	PingTimeoutSec    int    `hcl:"ping_timeout_sec"`
	PublishTimeoutSec int    `hcl:"publish_timeout_sec"`
}

func (c *Config) Limits() insight.Limits {
	return insight.Limits{
		MaxSlots:       c.Insight.MaxSlots,
		NameBufferSize: c.Insight.NameBuffer,
	}
}

func (c *Config) PeriodMs() uint32 {
	if c.Insight.PeriodMs <= 0 {
		return insight.DefaultPeriodMs
	}
	return uint32(c.Insight.PeriodMs)
}

func (c *Config) Preamble() string {
	if c.Insight.Preamble == "" {
		return insight.DefaultPreamble()
	}
	return c.Insight.Preamble
}

func (c *Config) Framing() (insight.Framing, error) {
	return insight.ParseFraming(c.Insight.Framing)
}

func (u *Uart) BaudOrDefault() int {
	if u.Baud <= 0 {
		return DefaultBaud
	}
	return u.Baud
}

func (t *Tele) Topic(suffix string) string {
	prefix := t.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return strings.TrimSuffix(prefix, "/") + "/" + suffix
}

// Configure applies insight section to a fresh instance.
func (c *Config) Configure(in *insight.Insight) error {
	framing, err := c.Framing()
	if err != nil {
		return errors.Annotate(err, "config insight")
	}
	in.SetFraming(framing)
	in.SetPeriod(c.PeriodMs())
	in.SetPreamble(c.Preamble())
	return nil
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if c.Insight.PeriodMs < 0 {
		errs = append(errs, errors.NotValidf("insight.period_ms=%d", c.Insight.PeriodMs))
	}
	if c.Insight.MaxSlots > insight.MaxPayload {
		errs = append(errs, errors.NotValidf("insight.max_slots=%d (max %d)", c.Insight.MaxSlots, insight.MaxPayload))
	}
	if _, err := c.Framing(); err != nil {
		errs = append(errs, err)
	}
	if p := c.Insight.Preamble; p != "" && !strings.HasSuffix(p, string(insight.Separator)) {
		errs = append(errs, errors.NotValidf("insight.preamble='%s' must end with '%c'", p, insight.Separator))
	}
	switch c.Uart.Driver {
	case "", "file", "serial":
	default:
		errs = append(errs, errors.NotSupportedf("uart.driver=%s", c.Uart.Driver))
	}
	if c.Tele.Enable && c.Tele.MqttBroker == "" {
		errs = append(errs, errors.NotValidf("tele.enable=true without tele.mqtt_broker"))
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) read(log *log2.Log, fs FullReader, source Source, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []Source
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.New("code error ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if err := osfs.SetBase(dir); err != nil {
			return nil, err
		}
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, Source{Name: name}, &errs)
	}
	if len(errs) == 0 {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
