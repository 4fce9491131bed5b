package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// Field is a typed key/value pair attached to a log message.
type Field struct {
	apply func(e *zerolog.Event) *zerolog.Event
	ctx   func(c zerolog.Context) zerolog.Context
}

func (f Field) addTo(e *zerolog.Event) {
	f.apply(e)
}

func (f Field) addToContext(c zerolog.Context) zerolog.Context {
	return f.ctx(c)
}

func String(key, value string) Field {
	return Field{
		apply: func(e *zerolog.Event) *zerolog.Event { return e.Str(key, value) },
		ctx:   func(c zerolog.Context) zerolog.Context { return c.Str(key, value) },
	}
}

func Int(key string, value int) Field {
	return Field{
		apply: func(e *zerolog.Event) *zerolog.Event { return e.Int(key, value) },
		ctx:   func(c zerolog.Context) zerolog.Context { return c.Int(key, value) },
	}
}

func Float(key string, value float64) Field {
	return Field{
		apply: func(e *zerolog.Event) *zerolog.Event { return e.Float64(key, value) },
		ctx:   func(c zerolog.Context) zerolog.Context { return c.Float64(key, value) },
	}
}

func Bool(key string, value bool) Field {
	return Field{
		apply: func(e *zerolog.Event) *zerolog.Event { return e.Bool(key, value) },
		ctx:   func(c zerolog.Context) zerolog.Context { return c.Bool(key, value) },
	}
}

func Duration(key string, value time.Duration) Field {
	return Field{
		apply: func(e *zerolog.Event) *zerolog.Event { return e.Dur(key, value) },
		ctx:   func(c zerolog.Context) zerolog.Context { return c.Dur(key, value) },
	}
}

func Time(key string, value time.Time) Field {
	return Field{
		apply: func(e *zerolog.Event) *zerolog.Event { return e.Time(key, value) },
		ctx:   func(c zerolog.Context) zerolog.Context { return c.Time(key, value) },
	}
}

func Err(err error) Field {
	return Field{
		apply: func(e *zerolog.Event) *zerolog.Event { return e.Err(err) },
		ctx:   func(c zerolog.Context) zerolog.Context { return c.Err(err) },
	}
}
