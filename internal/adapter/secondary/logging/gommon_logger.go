package logging

import (
	"os"

	"github.com/labstack/gommon/log"
	"github.com/shopfront/monei-gateway/internal/port/output"
)

// GommonLogger is a secondary adapter that implements the Logger output port
// on gommon's leveled JSON logger.
type GommonLogger struct {
	logger *log.Logger
}

// NewGommonLogger creates a logger writing JSON lines to stdout
func NewGommonLogger(prefix string, level log.Lvl) *GommonLogger {
	l := log.New(prefix)
	l.SetOutput(os.Stdout)
	l.SetLevel(level)
	l.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}"}`)
	return &GommonLogger{logger: l}
}

func toJSON(msg string, fields output.Fields) log.JSON {
	entry := log.JSON{"message": msg}
	for k, v := range fields {
		entry[k] = v
	}
	return entry
}

// Debug logs at debug level with structured context
func (g *GommonLogger) Debug(msg string, fields output.Fields) {
	g.logger.Debugj(toJSON(msg, fields))
}

// Info logs at info level with structured context
func (g *GommonLogger) Info(msg string, fields output.Fields) {
	g.logger.Infoj(toJSON(msg, fields))
}

// Warning logs at warn level with structured context
func (g *GommonLogger) Warning(msg string, fields output.Fields) {
	g.logger.Warnj(toJSON(msg, fields))
}

// Error logs at error level with structured context
func (g *GommonLogger) Error(msg string, fields output.Fields) {
	g.logger.Errorj(toJSON(msg, fields))
}

// Critical logs at error level; gommon has no separate critical level
func (g *GommonLogger) Critical(msg string, fields output.Fields) {
	g.logger.Errorj(toJSON(msg, fields))
}
