package tele

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/insight/config"
	"github.com/temoto/insight/helpers"
	"github.com/temoto/insight/log2"
)

const qos = 1

type Mqtt struct {
	log         *log2.Log
	m           mqtt.Client
	timeout     time.Duration
	topicOnline string
}

var _ Publisher = &Mqtt{}

// NewMqtt connects to broker. Connection loss later is handled by auto reconnect,
// publishing meanwhile fails after publish timeout.
func NewMqtt(c config.Tele, log *log2.Log) (*Mqtt, error) {
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log
	if c.LogDebug {
		mqtt.DEBUG = log
	}

	self := &Mqtt{
		log:         log,
		timeout:     helpers.IntSecondDefault(c.PublishTimeoutSec, 5*time.Second),
		topicOnline: c.Topic(SuffixOnline),
	}
	clientID := c.ClientID
	if clientID == "" {
		clientID = config.DefaultTopicPrefix
	}
	keepAlive := helpers.IntSecondDefault(c.KeepaliveSec, 60*time.Second)
	pingTimeout := helpers.IntSecondDefault(c.PingTimeoutSec, 30*time.Second)

	opt := mqtt.NewClientOptions().
		AddBroker(c.MqttBroker).
		SetBinaryWill(self.topicOnline, []byte{0x00}, qos, true).
		SetCleanSession(true).
		SetClientID(clientID).
		SetUsername(c.MqttUsername).
		SetPassword(c.MqttPassword).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetWriteTimeout(self.timeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(self.onConnect).
		SetConnectionLostHandler(self.onConnectionLost)
	self.m = mqtt.NewClient(opt)
	token := self.m.Connect()
	if !token.WaitTimeout(self.timeout) {
		return nil, errors.Timeoutf("mqtt connect broker=%s", c.MqttBroker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Annotatef(err, "mqtt connect broker=%s", c.MqttBroker)
	}
	return self, nil
}

func (self *Mqtt) Publish(topic string, retained bool, payload []byte) error {
	token := self.m.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(self.timeout) {
		return errors.Timeoutf("mqtt publish topic=%s", topic)
	}
	return errors.Annotatef(token.Error(), "mqtt publish topic=%s", topic)
}

// Close announces offline and disconnects.
func (self *Mqtt) Close() error {
	err := self.Publish(self.topicOnline, true, []byte{0x00})
	self.m.Disconnect(uint(self.timeout / time.Millisecond))
	return err
}

func (self *Mqtt) onConnect(c mqtt.Client) {
	self.log.Infof("mqtt connect")
	c.Publish(self.topicOnline, qos, true, []byte{0x01})
}

func (self *Mqtt) onConnectionLost(c mqtt.Client, err error) {
	self.log.Errorf("mqtt connection lost err=%v", err)
}
