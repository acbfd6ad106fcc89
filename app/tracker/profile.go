package tracker

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"gopkg.in/yaml.v3"
)

// names of built-in profiles
const (
	ProfileStandard    = "standard"
	ProfileConstrained = "constrained"
)

// Profile is a timing and retry configuration of the polling loop
type Profile struct {
	Name           string        `yaml:"-" json:"-"`
	BaseInterval   time.Duration `yaml:"base_interval" json:"base_interval,omitempty" jsonschema:"type=string,description=interval between status requests after a success"`
	MaxInterval    time.Duration `yaml:"max_interval" json:"max_interval,omitempty" jsonschema:"type=string,description=upper bound of backed-off interval"`
	Factor         float64       `yaml:"factor" json:"factor,omitempty" jsonschema:"minimum=1,description=interval multiplier on each failed request"`
	MaxErrors      int           `yaml:"max_errors" json:"max_errors,omitempty" jsonschema:"minimum=1,description=consecutive failures before connection is treated as lost"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout,omitempty" jsonschema:"type=string,description=timeout of a single status request"`
	StartupDelay   time.Duration `yaml:"startup_delay" json:"startup_delay,omitempty" jsonschema:"type=string,description=delay before resuming a cached job on start"`
}

// ProfilesConfig is the layout of profiles override file
type ProfilesConfig struct {
	Profiles map[string]Profile `yaml:"profiles" json:"profiles" jsonschema:"description=overrides keyed by profile name"`
}

// Standard profile for regular hosts
func Standard() Profile {
	return Profile{Name: ProfileStandard, BaseInterval: 2 * time.Second, MaxInterval: 30 * time.Second, Factor: 1.5,
		MaxErrors: 5, RequestTimeout: 10 * time.Second, StartupDelay: 500 * time.Millisecond}
}

// Constrained profile for low-power hosts, polls less often and gives up sooner
func Constrained() Profile {
	return Profile{Name: ProfileConstrained, BaseInterval: 4 * time.Second, MaxInterval: 30 * time.Second, Factor: 1.5,
		MaxErrors: 3, RequestTimeout: 15 * time.Second, StartupDelay: 2 * time.Second}
}

// Validate checks profile values
func (p Profile) Validate() error {
	switch {
	case p.BaseInterval <= 0:
		return fmt.Errorf("profile %s: base interval must be positive", p.Name)
	case p.MaxInterval < p.BaseInterval:
		return fmt.Errorf("profile %s: max interval %v less than base %v", p.Name, p.MaxInterval, p.BaseInterval)
	case p.Factor < 1:
		return fmt.Errorf("profile %s: factor %v less than 1", p.Name, p.Factor)
	case p.MaxErrors < 1:
		return fmt.Errorf("profile %s: max errors must be at least 1", p.Name)
	case p.RequestTimeout <= 0:
		return fmt.Errorf("profile %s: request timeout must be positive", p.Name)
	case p.StartupDelay < 0:
		return fmt.Errorf("profile %s: negative startup delay", p.Name)
	}
	return nil
}

// next returns backed-off interval, never above MaxInterval
func (p Profile) next(interval time.Duration) time.Duration {
	res := time.Duration(float64(interval) * p.Factor)
	if res > p.MaxInterval {
		return p.MaxInterval
	}
	return res
}

// HostInfo describes resources used to pick a profile
type HostInfo struct {
	CPUs     int
	MemTotal uint64
}

// constrained host thresholds
const (
	constrainedMaxCPUs = 2
	constrainedMinMem  = 2 << 30 // 2GiB
)

// Detect picks constrained profile name for small hosts and standard for everything else.
// Failure to read host stats results in standard profile.
func Detect() string {
	counts, err := cpu.Counts(true)
	if err != nil {
		log.Printf("[WARN] can't get cpu count, %v", err)
		return ProfileStandard
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Printf("[WARN] can't get memory stats, %v", err)
		return ProfileStandard
	}
	name := ForHost(HostInfo{CPUs: counts, MemTotal: vm.Total})
	log.Printf("[DEBUG] detected %s profile, cpus=%d, mem=%dMiB", name, counts, vm.Total>>20)
	return name
}

// ForHost returns profile name for given host resources
func ForHost(h HostInfo) string {
	if h.CPUs <= constrainedMaxCPUs || h.MemTotal < constrainedMinMem {
		return ProfileConstrained
	}
	return ProfileStandard
}

// Profiles is a set of named profiles
type Profiles map[string]Profile

// DefaultProfiles returns built-in profiles
func DefaultProfiles() Profiles {
	return Profiles{ProfileStandard: Standard(), ProfileConstrained: Constrained()}
}

// Get returns profile by name, "auto" or empty name detects it from the host
func (ps Profiles) Get(name string) (Profile, error) {
	if name == "" || name == "auto" {
		name = Detect()
	}
	p, ok := ps[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

//go:generate go run ./internal/schema profiles-schema.json

//go:embed profiles-schema.json
var profilesSchema []byte

// ProfilesSchema returns json schema of the profiles overrides file
func ProfilesSchema() []byte { return profilesSchema }

// profileFields returns keys allowed in a profile override, as listed by the embedded schema
func profileFields() (map[string]bool, error) {
	var schema struct {
		Defs map[string]struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"$defs"`
	}
	if err := json.Unmarshal(profilesSchema, &schema); err != nil {
		return nil, fmt.Errorf("parse profiles schema: %w", err)
	}
	res := make(map[string]bool, len(schema.Defs["Profile"].Properties))
	for k := range schema.Defs["Profile"].Properties {
		res[k] = true
	}
	return res, nil
}

// LoadProfiles reads overrides from yaml file on top of the built-in profiles.
// Fields not set in the file keep built-in values. Empty path returns defaults.
func LoadProfiles(path string) (Profiles, error) {
	res := DefaultProfiles()
	if path == "" {
		return res, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path from trusted config
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles %s: %w", path, err)
	}
	return parseProfiles(data, res)
}

func parseProfiles(data []byte, res Profiles) (Profiles, error) {
	var cfg struct {
		Profiles map[string]yaml.Node `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	fields, err := profileFields()
	if err != nil {
		return nil, err
	}
	for name, node := range cfg.Profiles {
		name = strings.ToLower(name)
		p, ok := res[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q in overrides", name)
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			if key := node.Content[i].Value; !fields[key] {
				return nil, fmt.Errorf("profile %s: unknown field %q", name, key)
			}
		}
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode profile %s: %w", name, err)
		}
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
		res[name] = p
		log.Printf("[INFO] profile %s overridden, base=%v, max-errors=%d", name, p.BaseInterval, p.MaxErrors)
	}
	return res, nil
}
