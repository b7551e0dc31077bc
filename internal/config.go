package internal

import "time"

// Config is shared by the server and the store viewer; both load it from the
// environment.
type Config struct {
	APIPort           int           `env:"API_PORT,default=3001"`
	PushPort          int           `env:"PUSH_PORT,default=7071"`
	DebugPort         int           `env:"DEBUG_PORT,default=8090"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	EventBufferSize   int           `env:"EVENT_BUFFER_SIZE,default=256"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,default=32"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ModerationWords   []string      `env:"MODERATION_WORDS"`
	ModerationChar    string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	EnableDebugServer bool          `env:"ENABLE_DEBUG_SERVER,default=false"`
}
