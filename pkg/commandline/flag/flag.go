package flag

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Argslice collects values of a repeatable flag.
type Argslice []string

func (s *Argslice) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *Argslice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Values returns collected values. A nil Argslice has no values.
func (s *Argslice) Values() []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, (*s)...)
}

// OptionalString is a string flag which tells whether it has been set.
type OptionalString struct {
	v     string
	isSet bool
}

func (o *OptionalString) String() string {
	if o == nil || !o.isSet {
		return ""
	}
	return o.v
}

func (o *OptionalString) Set(v string) error {
	o.v = v
	o.isSet = true
	return nil
}

// Value returns nil if the flag has not been set.
func (o *OptionalString) Value() *string {
	if o == nil || !o.isSet {
		return nil
	}
	v := o.v
	return &v
}

type OptionalInt struct {
	v     int
	isSet bool
}

func (o *OptionalInt) String() string {
	if o == nil || !o.isSet {
		return ""
	}
	return strconv.Itoa(o.v)
}

func (o *OptionalInt) Set(v string) error {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("not an integer: %s", v)
	}
	o.v = i
	o.isSet = true
	return nil
}

func (o *OptionalInt) Value() *int {
	if o == nil || !o.isSet {
		return nil
	}
	v := o.v
	return &v
}

type OptionalFloat struct {
	v     float64
	isSet bool
}

func (o *OptionalFloat) String() string {
	if o == nil || !o.isSet {
		return ""
	}
	return strconv.FormatFloat(o.v, 'g', -1, 64)
}

func (o *OptionalFloat) Set(v string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", v)
	}
	o.v = f
	o.isSet = true
	return nil
}

func (o *OptionalFloat) Value() *float64 {
	if o == nil || !o.isSet {
		return nil
	}
	v := o.v
	return &v
}

// Percent is an integer flag in [0, 100]. A trailing "%" is allowed.
type Percent struct {
	OptionalInt
}

func (p *Percent) Set(v string) error {
	if err := p.OptionalInt.Set(strings.TrimSuffix(strings.TrimSpace(v), "%")); err != nil {
		return err
	}
	if p.v < 0 || 100 < p.v {
		p.isSet = false
		return fmt.Errorf("percentage should be in 0..100: %s", v)
	}
	return nil
}

// Value returns nil if the flag has not been set.
func (p *Percent) Value() *int {
	if p == nil {
		return nil
	}
	return p.OptionalInt.Value()
}

func (p *Percent) String() string {
	if p == nil {
		return ""
	}
	return p.OptionalInt.String()
}

type OptionalDuration struct {
	d     time.Duration
	isSet bool
}

func (t *OptionalDuration) String() string {
	if t == nil || !t.isSet {
		return ""
	}
	return t.d.String()
}

func (t *OptionalDuration) Set(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration should be positive: %s", v)
	}
	t.d = d
	t.isSet = true
	return nil
}

// Duration returns nil if the flag has not been set.
func (t *OptionalDuration) Duration() *time.Duration {
	if t == nil || !t.isSet {
		return nil
	}
	return &t.d
}

// OneOf is a string flag restricted to choices.
type OneOf struct {
	v       string
	choices []string
}

// NewOneOf returns a flag with choices. The first choice is the default.
func NewOneOf(choices ...string) *OneOf {
	return &OneOf{v: choices[0], choices: choices}
}

func (o *OneOf) String() string {
	if o == nil {
		return ""
	}
	return o.v
}

func (o *OneOf) Set(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, c := range o.choices {
		if c == v {
			o.v = v
			return nil
		}
	}
	return fmt.Errorf("should be one of %s: %s", strings.Join(o.choices, "|"), v)
}

// Value returns the chosen value. A nil OneOf returns "".
func (o *OneOf) Value() string {
	if o == nil {
		return ""
	}
	return o.v
}
