package seqsynth

import (
	"strings"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// InPortNames lists the MIDI inputs of the registered driver.
func InPortNames() []string {
	var names []string
	for _, in := range gomidi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// findInPort returns the first input whose name contains name, ignoring case.
func findInPort(ports []drivers.In, name string) (drivers.In, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, in := range ports {
		if want == "" || strings.Contains(strings.ToLower(in.String()), want) {
			return in, nil
		}
	}
	if want == "" {
		return nil, errors.New("seqsynth: no MIDI inputs available")
	}
	return nil, errors.Errorf("seqsynth: MIDI input %q not found", name)
}

// ListenMIDI forwards note and controller messages from the named input
// port to the instrument. An empty name picks the first port. A driver
// must be registered by the caller (e.g. rtmididrv).
func (in *Instrument) ListenMIDI(portName string) (stop func(), err error) {
	port, err := findInPort(gomidi.GetInPorts(), portName)
	if err != nil {
		return nil, err
	}
	stop, err = gomidi.ListenTo(port, func(msg gomidi.Message, _ int32) {
		if playable(msg) {
			in.SendMIDI(msg)
		}
	}, gomidi.HandleError(func(listenErr error) {
		in.logger.Warn("MIDI listener error", "port", port.String(), "err", listenErr)
	}))
	if err != nil {
		return nil, errors.Wrapf(err, "seqsynth: listen to %s", port.String())
	}
	in.logger.Info("MIDI input connected", "port", port.String())
	return stop, nil
}

// playable reports messages the voice engine acts on.
func playable(msg gomidi.Message) bool {
	var ch, key, vel, cc, val uint8
	return msg.GetNoteStart(&ch, &key, &vel) ||
		msg.GetNoteEnd(&ch, &key) ||
		msg.GetControlChange(&ch, &cc, &val)
}
