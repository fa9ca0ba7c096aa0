package config

import (
	"fmt"
)

// Plugin identifiers recognized by the dope sheet
const (
	PluginIDReadOIIO   = "fr.inria.openfx.ReadOIIO"
	PluginIDReadFFmpeg = "fr.inria.openfx.ReadFFmpeg"
	PluginIDReadPFM    = "fr.inria.openfx.ReadPFM"
	PluginIDRead       = "fr.inria.built-in.Read"
	PluginIDGroup      = "fr.inria.built-in.Group"
	PluginIDInput      = "fr.inria.built-in.Input"
	PluginIDOutput     = "fr.inria.built-in.Output"
	PluginIDRoto       = "fr.inria.built-in.Roto"
	PluginIDRotoPaint  = "fr.inria.built-in.RotoPaint"
	PluginIDRetime     = "net.sf.openfx.Retime"
	PluginIDTimeOffset = "net.sf.openfx.timeOffset"
	PluginIDFrameRange = "net.sf.openfx.FrameRange"
)

// KnobNames holds the names of the knobs the dope sheet reads and edits
type KnobNames struct {
	// Reader
	StartingTime       string `yaml:"starting_time"`
	FirstFrame         string `yaml:"first_frame"`
	LastFrame          string `yaml:"last_frame"`
	OriginalFrameRange string `yaml:"original_frame_range"`
	ReaderTimeOffset   string `yaml:"reader_time_offset"`

	// Time nodes
	TimeOffset string `yaml:"time_offset"`
	FrameRange string `yaml:"frame_range"`
	Speed      string `yaml:"speed"`

	// Common nodes
	Lifetime       string `yaml:"lifetime"`
	EnableLifetime string `yaml:"enable_lifetime"`
}

// DomainConfig holds the classification rules and limits of the dope sheet
type DomainConfig struct {
	// Classification by plugin ID
	ReaderPluginIDs    []string `yaml:"reader_plugin_ids"`
	GroupPluginID      string   `yaml:"group_plugin_id"`
	RetimePluginID     string   `yaml:"retime_plugin_id"`
	TimeOffsetPluginID string   `yaml:"time_offset_plugin_id"`
	FrameRangePluginID string   `yaml:"frame_range_plugin_id"`

	// Nodes never shown: group I/O passthroughs and roto internals
	ExcludedPluginIDs []string `yaml:"excluded_plugin_ids"`
	// Nodes living inside a node of one of these plugins are never shown
	ExcludedContainerPluginIDs []string `yaml:"excluded_container_plugin_ids"`

	Knobs KnobNames `yaml:"knobs"`

	// Undo stack depth, 0 means unbounded
	UndoLimit int `yaml:"undo_limit"`
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		ReaderPluginIDs:    []string{PluginIDReadOIIO, PluginIDReadFFmpeg, PluginIDReadPFM, PluginIDRead},
		GroupPluginID:      PluginIDGroup,
		RetimePluginID:     PluginIDRetime,
		TimeOffsetPluginID: PluginIDTimeOffset,
		FrameRangePluginID: PluginIDFrameRange,

		ExcludedPluginIDs:          []string{PluginIDInput, PluginIDOutput, PluginIDRoto, PluginIDRotoPaint},
		ExcludedContainerPluginIDs: []string{PluginIDRoto, PluginIDRotoPaint},

		Knobs: KnobNames{
			StartingTime:       "startingTime",
			FirstFrame:         "firstFrame",
			LastFrame:          "lastFrame",
			OriginalFrameRange: "originalFrameRange",
			ReaderTimeOffset:   "timeOffset",
			TimeOffset:         "timeOffset",
			FrameRange:         "frameRange",
			Speed:              "speed",
			Lifetime:           "lifeTime",
			EnableLifetime:     "enableLifeTime",
		},

		UndoLimit: 0,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Bounded history for long-running sessions
	config.UndoLimit = 500

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.UndoLimit = 100
	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// IsReader reports whether pluginID belongs to the reader bundle
func (c *DomainConfig) IsReader(pluginID string) bool {
	return contains(c.ReaderPluginIDs, pluginID)
}

// IsExcluded reports whether nodes of pluginID are kept out of the dope sheet
func (c *DomainConfig) IsExcluded(pluginID string) bool {
	return contains(c.ExcludedPluginIDs, pluginID)
}

// IsExcludedContainer reports whether the members of a pluginID node are internal
func (c *DomainConfig) IsExcludedContainer(pluginID string) bool {
	return contains(c.ExcludedContainerPluginIDs, pluginID)
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if len(c.ReaderPluginIDs) == 0 {
		return fmt.Errorf("at least one reader plugin ID is required")
	}
	if c.GroupPluginID == "" || c.RetimePluginID == "" || c.TimeOffsetPluginID == "" || c.FrameRangePluginID == "" {
		return fmt.Errorf("group, retime, time offset and frame range plugin IDs are required")
	}
	k := c.Knobs
	for name, v := range map[string]string{
		"starting_time":        k.StartingTime,
		"first_frame":          k.FirstFrame,
		"last_frame":           k.LastFrame,
		"original_frame_range": k.OriginalFrameRange,
		"time_offset":          k.TimeOffset,
		"frame_range":          k.FrameRange,
	} {
		if v == "" {
			return fmt.Errorf("knob name %s cannot be empty", name)
		}
	}
	if c.UndoLimit < 0 {
		return fmt.Errorf("undo limit cannot be negative: %d", c.UndoLimit)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
