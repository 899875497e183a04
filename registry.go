package insight

import (
	"errors"
	"strings"
)

const (
	// MaxPayload is the data frame payload ceiling. The length field is one byte
	// and two values are reserved for frame bookkeeping.
	MaxPayload = 255 - 2

	Separator = ';'
)

var (
	ErrLocked          = errors.New("insight: registry is locked while enabled")
	ErrSlotsFull       = errors.New("insight: slot table is full")
	ErrUnsupportedType = errors.New("insight: unsupported variable type")
	ErrInvalidName     = errors.New("insight: name contains separator or control byte")
	ErrNamesFull       = errors.New("insight: name buffer is full")
	ErrPayloadFull     = errors.New("insight: payload byte budget exceeded")
)

// Limits are fixed at construction, registry memory never grows past them.
type Limits struct {
	MaxSlots       int
	NameBufferSize int
}

func DefaultLimits() Limits {
	return Limits{
		MaxSlots:       32,
		NameBufferSize: 256,
	}
}

func (l Limits) normalize() Limits {
	def := DefaultLimits()
	if l.MaxSlots <= 0 {
		l.MaxSlots = def.MaxSlots
	}
	if l.NameBufferSize <= 0 {
		l.NameBufferSize = def.NameBufferSize
	}
	return l
}

// slot borrows caller storage. The referenced variable must outlive
// every Transmit that may read it.
type slot struct {
	ref interface{}
	typ Type
}

type Var struct {
	Name string
	Type Type
}

// Add registers ptr under name. ptr must be a non-nil pointer to one of
// bool, uint8..uint64, int8..int64, float32, float64.
// On error nothing is registered.
func (self *Insight) Add(ptr interface{}, name string) error {
	if self.enabled {
		return ErrLocked
	}
	if len(self.slots) >= cap(self.slots) {
		return ErrSlotsFull
	}
	typ, ok := TypeOf(ptr)
	if !ok {
		return ErrUnsupportedType
	}
	if !validName(name) {
		return ErrInvalidName
	}
	if len(name)+1 > cap(self.names)-len(self.names) {
		// names[:len] stays the last good text
		return ErrNamesFull
	}
	if self.payload+typ.Size() > MaxPayload {
		return ErrPayloadFull
	}

	self.names = append(self.names, name...)
	self.names = append(self.names, Separator)
	self.slots = append(self.slots, slot{ref: ptr, typ: typ})
	self.payload += typ.Size()
	return nil
}

// Reset drops all registered variables and statistics.
// Not allowed while enabled, same as Add.
func (self *Insight) Reset() error {
	if self.enabled {
		return ErrLocked
	}
	for i := range self.slots {
		self.slots[i] = slot{}
	}
	self.slots = self.slots[:0]
	self.names = self.names[:0]
	self.payload = 0
	self.stat = Stat{}
	return nil
}

func (self *Insight) Len() int         { return len(self.slots) }
func (self *Insight) PayloadSize() int { return self.payload }

// Names returns the joined name list exactly as sent in the header.
func (self *Insight) Names() string { return string(self.names) }

func (self *Insight) Layout() []Var {
	if len(self.slots) == 0 {
		return nil
	}
	names := strings.Split(strings.TrimSuffix(string(self.names), string(Separator)), string(Separator))
	vars := make([]Var, len(self.slots))
	for i, s := range self.slots {
		vars[i] = Var{Name: names[i], Type: s.typ}
	}
	return vars
}

func validName(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] == Separator || name[i] < 0x20 || name[i] == 0x7f {
			return false
		}
	}
	return true
}
