package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

// profileFile is loaded once into a command-name-keyed map of raw
// template bodies.
type profileFile map[Command]map[string]any

var (
	loadOnce   sync.Once
	loadErr    error
	profiles   map[string]profileFile
	profileSeq = []string{"default", "v3.4", "v3.5", "device22", "zigbee"}
)

func load() {
	profiles = make(map[string]profileFile, len(profileSeq))
	for _, name := range profileSeq {
		data, err := profileFS.ReadFile("profiles/" + name + ".yaml")
		if err != nil {
			loadErr = fmt.Errorf("catalog: read profile %q: %w", name, err)
			return
		}
		var raw map[string]map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			loadErr = fmt.Errorf("catalog: parse profile %q: %w", name, err)
			return
		}
		pf := make(profileFile, len(raw))
		for cmdName, body := range raw {
			pf[Command(cmdName)] = body
		}
		profiles[name] = pf
	}
}

// BuildParams supplies the values a template's placeholders are filled
// with.
type BuildParams struct {
	// DeviceID fills gwId/devId/uid.
	DeviceID string
	// Timestamp is seconds since epoch, used for the "t" field.
	Timestamp int64
	// Dps fills a control command's dps (or nested data.dps) field.
	Dps map[string]any
	// DpIDs fills update-dps / device22 dp-query's dpId field.
	DpIDs []int
	// ClusterID fills a zigbee profile's cid field.
	ClusterID string
}

// Build resolves cmd's on-wire command (applying overrides), overlays
// the default, version-profile, and device-profile templates for it,
// substitutes params into the result, and marshals it to compact JSON.
//
// versionProfile is "" for 3.1-3.3, "v3.4", or "v3.5". deviceProfile is
// "" for the plain default profile, or a name such as "device22" or
// "zigbee".
func Build(cmd Command, versionProfile, deviceProfile string, params BuildParams) (wireCmd uint32, payload []byte, err error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return 0, nil, loadErr
	}

	_, code := Resolve(cmd, deviceProfile, versionProfile)

	body := overlayTemplate(cmd, versionProfile, deviceProfile)
	if body == nil {
		body = map[string]any{}
	}

	copied, err := deepCopy(body)
	if err != nil {
		return 0, nil, fmt.Errorf("catalog: deep copy template for %s: %w", cmd, err)
	}

	substitute(copied, params)

	out, err := json.Marshal(copied)
	if err != nil {
		return 0, nil, fmt.Errorf("catalog: marshal payload for %s: %w", cmd, err)
	}
	return code, out, nil
}

// overlayTemplate returns the template body for cmd after applying
// default, then version-profile, then device-profile layers. Each layer
// fully replaces the prior one's body for cmd when it defines an entry;
// a layer that doesn't mention cmd leaves the prior layer's body in
// place.
func overlayTemplate(cmd Command, versionProfile, deviceProfile string) map[string]any {
	var body map[string]any
	if pf, ok := profiles["default"]; ok {
		if b, ok := pf[cmd]; ok {
			body = b
		}
	}
	if versionProfile != "" {
		if pf, ok := profiles[versionProfile]; ok {
			if b, ok := pf[cmd]; ok {
				body = b
			}
		}
	}
	if deviceProfile != "" {
		if pf, ok := profiles[deviceProfile]; ok {
			if b, ok := pf[cmd]; ok {
				body = b
			}
		}
	}
	return body
}

// deepCopy round-trips v through CBOR so the returned value shares no
// storage with v; callers substitute placeholders into the copy without
// risk of mutating a cached template.
func deepCopy(v map[string]any) (map[string]any, error) {
	enc, err := cbor.Marshal(v)
	if err != nil {
		return nil, err
	}
	// Nested maps must decode as map[string]any so substitute can walk
	// them and encoding/json can marshal them.
	dm, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := dm.Unmarshal(enc, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// substitute walks m in place, replacing recognized "${...}" placeholder
// strings with the corresponding value from params.
func substitute(m map[string]any, params BuildParams) {
	for k, v := range m {
		m[k] = substituteValue(v, params)
	}
}

func substituteValue(v any, params BuildParams) any {
	switch val := v.(type) {
	case string:
		return resolvePlaceholder(val, params)
	case map[string]any:
		substitute(val, params)
		return val
	case []any:
		for i, e := range val {
			val[i] = substituteValue(e, params)
		}
		return val
	default:
		return v
	}
}

func resolvePlaceholder(token string, params BuildParams) any {
	switch token {
	case "${devId}":
		return params.DeviceID
	case "${t}":
		return strconv.FormatInt(params.Timestamp, 10)
	case "${t:int}":
		return params.Timestamp
	case "${dps}":
		if params.Dps == nil {
			return map[string]any{}
		}
		return params.Dps
	case "${dpIds}":
		return params.DpIDs
	case "${cid}":
		return params.ClusterID
	default:
		return token
	}
}
