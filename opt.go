package krakengo

import (
	"os"

	"github.com/sonirico/vago/lol"
)

// Opt is a functional option: a function that mutates a *T in place. Apply
// exists so call sites read as opt.Apply(target) instead of opt(target).
type Opt[T any] func(*T)

func (o Opt[T]) Apply(opt *T) {
	o(opt)
}

type (
	SpotClientOpt    = Opt[SpotClient]
	FuturesClientOpt = Opt[FuturesClient]
	SessionOpt       = Opt[Session]
)

func debugLogger() lol.Logger {
	return lol.NewZerolog(
		lol.WithLevel(lol.LevelTrace),
		lol.WithWriter(os.Stderr),
		lol.WithEnv(lol.EnvDev),
	)
}

// SpotClientOptDebugMode turns on verbose request/response logging for a
// SpotClient.
func SpotClientOptDebugMode() SpotClientOpt {
	return func(c *SpotClient) {
		c.debug = true
		c.logger = debugLogger()
	}
}

// FuturesClientOptDebugMode turns on verbose request/response logging for a
// FuturesClient.
func FuturesClientOptDebugMode() FuturesClientOpt {
	return func(c *FuturesClient) {
		c.debug = true
		c.logger = debugLogger()
	}
}

// SessionOptDebugMode turns on verbose frame logging for a streaming
// Session.
func SessionOptDebugMode() SessionOpt {
	return func(s *Session) {
		s.debug = true
		s.logger = debugLogger()
	}
}
