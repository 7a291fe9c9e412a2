package main

// UpFlags holds flags for the up command.
type UpFlags struct {
	ConfigPath    string
	SkipPreflight bool
	NoBrowser     bool
	Pause         bool
	HTTPListen    string
	LogLevel      string
}

// CheckFlags holds flags for the check command.
type CheckFlags struct {
	ConfigPath string
}
