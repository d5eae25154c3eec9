package config

const (
	defaultSerialDevice       = "auto"
	defaultBaudRate           = 9600
	defaultDataBits           = 8
	defaultParity             = "none"
	defaultStopBits           = 2
	defaultReadTimeoutMS      = 500 // has to stay above 300 ms for this instrument
	defaultFlowControlWaitMS  = 100
	defaultTerminal           = "P25V"
	defaultVoltage            = 2.5
	defaultCurrentLimit       = 0.100
	defaultMaxAttempts        = 3
	defaultCommandIntervalMS  = 100
	defaultUpdateIntervalMS   = 360
	defaultTriggerWindowMS    = 20
	defaultDataDir            = "~/.local/share/psud"
	defaultDatabaseFile       = "~/.local/share/psud/psud.sqlite3"
	defaultLockFile           = "/tmp/psud.lock"
	defaultFailureThreshold   = 3
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Serial: Serial{
			Device:               defaultSerialDevice,
			BaudRate:             defaultBaudRate,
			DataBits:             defaultDataBits,
			Parity:               defaultParity,
			StopBits:             defaultStopBits,
			ReadTimeoutMS:        defaultReadTimeoutMS,
			FlowControlTimeoutMS: defaultFlowControlWaitMS,
		},
		PSU: PSU{
			Terminal:            defaultTerminal,
			DefaultVoltage:      defaultVoltage,
			DefaultCurrentLimit: defaultCurrentLimit,
			MaxAttempts:         defaultMaxAttempts,
		},
		Intervals: Intervals{
			CommandMS:       defaultCommandIntervalMS,
			UpdateMS:        defaultUpdateIntervalMS,
			TriggerWindowMS: defaultTriggerWindowMS,
		},
		Daemon: Daemon{
			DataDir:          defaultDataDir,
			DatabaseFile:     defaultDatabaseFile,
			LockFile:         defaultLockFile,
			FailureThreshold: defaultFailureThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
