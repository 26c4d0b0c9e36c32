package logsvc

import (
	"log"
	"os"
)

// ConsoleLogger logs to the standard logger only; used in local/dev and test
// environments where no rollbar token is configured.
type ConsoleLogger struct {
	std *log.Logger
}

func NewConsoleLogger(std *log.Logger) *ConsoleLogger {
	if std == nil {
		std = log.New(os.Stderr, "escolar ", log.LstdFlags|log.Lmicroseconds)
	}
	return &ConsoleLogger{std: std}
}

func (l ConsoleLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) { l.print("DEBUG", msg, args) }
func (l ConsoleLogger) Info(msg string, args ...interface{})  { l.print("INFO", msg, args) }
func (l ConsoleLogger) Warn(msg string, args ...interface{})  { l.print("WARN", msg, args) }
func (l ConsoleLogger) Error(msg string, args ...interface{}) { l.print("ERROR", msg, args) }
func (l ConsoleLogger) Fatal(msg string, args ...interface{}) {
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
