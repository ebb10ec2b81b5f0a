package midi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var ErrUnknownModel = errors.New("unsupported controller model")

// Profiles lists every supported model in matching order.
var Profiles = []*Profile{
	&LaunchpadMiniMk2,
	&LaunchpadMiniMk3,
	&LaunchpadX,
}

// SelectProfile returns the profile whose identifier is contained in the
// given MIDI port name.
func SelectProfile(portName string) (*Profile, error) {
	name := strings.ToLower(portName)
	for _, p := range Profiles {
		for _, m := range p.Match {
			if strings.Contains(name, strings.ToLower(m)) {
				return p, nil
			}
		}
	}
	return nil, fault.Wrap(ErrUnknownModel,
		fmsg.WithDesc(portName,
			fmt.Sprintf("No programmer mode available for %q. Supported models: %s.", portName, supportedModels())),
		ftag.With(ftag.NotFound))
}

func supportedModels() string {
	names := make([]string, 0, len(Profiles))
	for _, p := range Profiles {
		names = append(names, string(p.Model))
	}
	return strings.Join(names, ", ")
}
