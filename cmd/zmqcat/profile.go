package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	zmqffi "github.com/semifor/zmq-ffi"
	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/consts"
)

// Profile is the YAML description of one socket setup. Command-line flags
// override profile values field by field.
type Profile struct {
	Endpoint  string         `yaml:"endpoint"`
	Type      string         `yaml:"type"`
	Bind      bool           `yaml:"bind"`
	Subscribe []string       `yaml:"subscribe"`
	Rate      float64        `yaml:"rate"`
	Options   ProfileOptions `yaml:"options"`
}

// ProfileOptions are the socket options a profile may set before the
// endpoint is wired. Pointer fields distinguish unset from an explicit zero.
type ProfileOptions struct {
	Linger   *int   `yaml:"linger"`
	SndHWM   *int   `yaml:"sndhwm"`
	RcvHWM   *int   `yaml:"rcvhwm"`
	RcvTimeo *int   `yaml:"rcvtimeo"`
	SndTimeo *int   `yaml:"sndtimeo"`
	Identity string `yaml:"identity"`
}

// LoadProfile reads and parses a profile file. Validation is separate so
// flag overrides can land in between.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}

// Validate checks the merged profile before any socket is created.
func (p *Profile) Validate() error {
	if p.Endpoint == "" {
		return fmt.Errorf("profile: endpoint is required")
	}
	if p.Type != "" {
		if _, ok := consts.SocketTypeNamed(p.Type); !ok {
			return fmt.Errorf("profile: unknown socket type %q", p.Type)
		}
	}
	if p.Rate < 0 {
		return fmt.Errorf("profile: rate must be non-negative")
	}
	if len(p.Subscribe) > 0 && !p.subscriber() {
		return fmt.Errorf("profile: subscriptions need a sub or xsub socket, not %q", p.Type)
	}
	return nil
}

func (p *Profile) subscriber() bool {
	return p.Type == "sub" || p.Type == "xsub"
}

// SocketType resolves the profile's type name. Call after Validate.
func (p *Profile) SocketType() consts.SocketType {
	typ, _ := consts.SocketTypeNamed(p.Type)
	return typ
}

// Apply pushes the profile's options and subscriptions onto a socket.
func (p *Profile) Apply(s zmqffi.Socket) error {
	ints := []struct {
		option int
		value  *int
	}{
		{consts.OptSndHWM, p.Options.SndHWM},
		{consts.OptRcvHWM, p.Options.RcvHWM},
		{consts.OptRcvTimeo, p.Options.RcvTimeo},
		{consts.OptSndTimeo, p.Options.SndTimeo},
	}
	for _, o := range ints {
		if o.value == nil {
			continue
		}
		if err := s.Set(o.option, backend.TypeInt, *o.value); err != nil {
			return err
		}
	}
	if p.Options.Linger != nil {
		if err := s.SetLinger(*p.Options.Linger); err != nil {
			return err
		}
	}
	if p.Options.Identity != "" {
		if err := s.SetIdentity(p.Options.Identity); err != nil {
			return err
		}
	}
	for _, topic := range p.Subscribe {
		if err := s.Subscribe(topic); err != nil {
			return err
		}
	}
	return nil
}
