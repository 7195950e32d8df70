package config

// EngineConfig contains general engine configuration values
type EngineConfig struct {
	AppName string // used for the settings persistence namespace
	TPS     int    // host ticks per second, informational only
}

var C EngineConfig

func init() {
	C = EngineConfig{
		AppName: "chime",
		TPS:     60,
	}
}
