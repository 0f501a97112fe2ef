package config

import (
	"fmt"
	"strings"

	"github.com/xplshn/plc0/pkg/cli"
	"modernc.org/libqbe"
)

type Feature int

const (
	FeatReserveSlots Feature = iota
	FeatCount
)

type Warning int

const (
	WarnUnused Warning = iota
	WarnSlotGap
	WarnEmptyStmt
	WarnPedantic
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features      map[Feature]Info
	Warnings      map[Warning]Info
	FeatureMap    map[string]Feature
	WarningMap    map[string]Warning
	StdName       string
	BackendName   string
	BackendTarget string
	WordSize      int
}

func NewConfig() *Config {
	cfg := &Config{
		FeatureMap:  make(map[string]Feature),
		WarningMap:  make(map[string]Warning),
		StdName:     "plc0",
		BackendName: "vm",
		WordSize:    4,
	}

	cfg.Features = map[Feature]Info{
		FeatReserveSlots: {"reserve-slots", false, "Push a zero for every 'var' declared without an initializer so its slot is owned from the start."},
	}
	cfg.Warnings = map[Warning]Info{
		WarnUnused:    {"unused", true, "Warn about constants and variables that are never read."},
		WarnSlotGap:   {"slot-gap", false, "Warn when an uninitialized 'var' leaves its frame slot unreserved."},
		WarnEmptyStmt: {"empty-stmt", false, "Warn about empty ';' statements."},
		WarnPedantic:  {"pedantic", false, "Warn about redundant constructs such as a unary '+'."},
	}

	for ft, info := range cfg.Features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range cfg.Warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetAllWarnings toggles every warning except pedantic, like -Wall.
func (c *Config) SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		if i != WarnPedantic {
			c.SetWarning(i, enabled)
		}
	}
}

func (c *Config) ApplyStd(stdName string) error {
	switch stdName {
	case "plc0":
		c.SetFeature(FeatReserveSlots, false)
	case "strict":
		c.SetFeature(FeatReserveSlots, true)
		c.SetAllWarnings(true)
		c.SetWarning(WarnPedantic, true)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'plc0', 'strict'", stdName)
	}
	c.StdName = stdName
	return nil
}

// SetTarget selects the backend from a "name[/target]" string such as
// "vm", "llvm" or "qbe/arm64_apple".
func (c *Config) SetTarget(goos, goarch, target string) error {
	name, sub, _ := strings.Cut(target, "/")
	switch name {
	case "", "vm":
		c.BackendName, c.BackendTarget = "vm", ""
	case "llvm":
		c.BackendName, c.BackendTarget = "llvm", sub
	case "qbe":
		c.BackendName = "qbe"
		if sub == "" {
			sub = libqbe.DefaultTarget(goos, goarch)
		}
		c.BackendTarget = sub
	default:
		return fmt.Errorf("unsupported backend '%s'. Supported: 'vm', 'qbe', 'llvm'", name)
	}
	return nil
}

// SetupFlagGroups registers -W/-F flag groups on fs. The returned entries are
// indexed by Warning and Feature respectively.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
	}
	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning", "Available Warnings:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable code generation features", "feature", "Available Features:", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups copies explicit -W/-F choices from the command line.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
