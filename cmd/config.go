package main

import (
	"fmt"
	"time"
)

type Config struct {
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath   string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=5000"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT,default=10s"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL,default=15s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
