package mastering

import "github.com/auricle-audio/mastergo/pkg/framework/plugin"

// Info is the plugin metadata the host shell reports.
var Info = plugin.Info{
	ID:          "com.auricle-audio.mastergo",
	Name:        "MasterGo",
	Version:     "1.0.0",
	Vendor:      "Auricle Audio",
	Category:    "Fx|Mastering",
	Description: "Mastering chain with cross-process loudness histogram",
}
