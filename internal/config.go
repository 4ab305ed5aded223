// Package internal carries process-level wiring: configuration and logger
// construction. Nothing here knows about chats or users.
package internal

import (
	"time"
)

type Config struct {
	Host string `env:"HOST,required=true"`
	Port int    `env:"PORT,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`

	UploadDir     string `env:"UPLOAD_DIR,required=true"`
	UploadBaseURL string `env:"UPLOAD_BASE_URL,default=/uploads"`

	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	SessionQueueSize int           `env:"SESSION_QUEUE_SIZE,default=64"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	LogLevel string `env:"LOG_LEVEL,required=true"`
}
