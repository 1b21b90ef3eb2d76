package scheduler

import "github.com/charmbracelet/log"

// logger adapts charm log to gocron.Logger.
type logger struct {
	l *log.Logger
}

func newLogger() *logger {
	return &logger{l: log.Default().WithPrefix("scheduler")}
}

func (g *logger) Debug(msg string, args ...any) { g.l.Debug(msg, args...) }
func (g *logger) Info(msg string, args ...any)  { g.l.Info(msg, args...) }
func (g *logger) Warn(msg string, args ...any)  { g.l.Warn(msg, args...) }
func (g *logger) Error(msg string, args ...any) { g.l.Error(msg, args...) }
