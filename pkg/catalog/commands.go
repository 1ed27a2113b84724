package catalog

// Command names a catalog entry. Names, not raw codes, are what callers
// and profile overlays reason about; Code resolves a name to its wire
// value.
type Command string

const (
	APConfig              Command = "apConfig"
	Active                Command = "active"
	SessionKeyNegStart    Command = "sessionKeyNegStart"
	SessionKeyNegResponse Command = "sessionKeyNegResponse"
	SessionKeyNegFinish   Command = "sessionKeyNegFinish"
	Unbind                Command = "unbind"
	Control               Command = "control"
	Status                Command = "status"
	Heartbeat             Command = "heartbeat"
	DPQuery               Command = "dpQuery"
	TokenBind             Command = "tokenBind"
	ControlNew            Command = "controlNew"
	DPQueryNew            Command = "dpQueryNew"
	UpdateDps             Command = "updateDps"
	UDPNew                Command = "udpNew"
	BroadcastLPV34        Command = "broadcastLpv34"
	RequestDevInfo        Command = "requestDevInfo"
	LanExtStream          Command = "lanExtStream"
)

// commandCodes is the canonical (profile-independent) command-code
// table.
var commandCodes = map[Command]uint32{
	APConfig:              1,
	Active:                2,
	SessionKeyNegStart:    3,
	SessionKeyNegResponse: 4,
	SessionKeyNegFinish:   5,
	Unbind:                6,
	Control:               7,
	Status:                8,
	Heartbeat:             9,
	DPQuery:               10,
	TokenBind:             12,
	ControlNew:            13,
	DPQueryNew:            16,
	UpdateDps:             18,
	UDPNew:                19,
	BroadcastLPV34:        35,
	RequestDevInfo:        37,
	LanExtStream:          64,
}

// headerExempt is the set of commands emitted without a version header
// even on protocols that otherwise require one.
var headerExempt = map[Command]bool{
	DPQuery:               true,
	DPQueryNew:            true,
	UpdateDps:             true,
	Heartbeat:             true,
	SessionKeyNegStart:    true,
	SessionKeyNegResponse: true,
	SessionKeyNegFinish:   true,
	LanExtStream:          true,
}

// overrideRules maps a command to the command it is emitted as, keyed
// by whichever of the device profile or version profile triggers the
// override. Device-profile overrides are checked before version-profile
// overrides.
var overrideRules = map[Command]map[string]Command{
	Control: {
		"v3.4": ControlNew,
		"v3.5": ControlNew,
	},
	DPQuery: {
		"device22": ControlNew,
		"v3.4":     DPQueryNew,
		"v3.5":     DPQueryNew,
	},
}

// Code returns cmd's canonical wire command code.
func Code(cmd Command) (uint32, bool) {
	c, ok := commandCodes[cmd]
	return c, ok
}

// IsHeaderExempt reports whether cmd is emitted without a version
// header regardless of protocol version.
func IsHeaderExempt(cmd Command) bool {
	return headerExempt[cmd]
}

// Resolve applies the override rules for cmd given a device profile
// (e.g. "device22", "" for none) and a version profile (e.g. "v3.4",
// "v3.5", "" for 3.1-3.3). It returns the command actually emitted on
// the wire and its code.
func Resolve(cmd Command, deviceProfile, versionProfile string) (Command, uint32) {
	rules, ok := overrideRules[cmd]
	if ok {
		if target, ok := rules[deviceProfile]; ok {
			code, _ := Code(target)
			return target, code
		}
		if target, ok := rules[versionProfile]; ok {
			code, _ := Code(target)
			return target, code
		}
	}
	code, _ := Code(cmd)
	return cmd, code
}
