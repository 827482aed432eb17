package logger

import (
	"fmt"
	"strings"
	"sync"
)

// Basic prints log lines to stdout using fmt.Printf. It is the default
// logger wired by the example program; real hosts forward to their own
// logging stack instead.
type Basic struct {
	mu     *sync.Mutex
	fields []Field
}

var _ Logger = (*Basic)(nil)

// New returns a basic stdout logger.
func New() *Basic {
	return &Basic{mu: &sync.Mutex{}}
}

// With returns a logger that includes the fields on every line.
func (l *Basic) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	next := &Basic{mu: l.mu, fields: make([]Field, 0, len(l.fields)+len(fields))}
	next.fields = append(next.fields, l.fields...)
	next.fields = append(next.fields, fields...)
	return next
}

func (l *Basic) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields) }
func (l *Basic) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields) }
func (l *Basic) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields) }
func (l *Basic) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields) }

func (l *Basic) log(level, msg string, fields []Field) {
	line := fmt.Sprintf("[%s] %s", level, msg)
	if rendered := render(append(append([]Field{}, l.fields...), fields...)); rendered != "" {
		line += " " + rendered
	}
	l.mu.Lock()
	fmt.Println(line)
	l.mu.Unlock()
}

func render(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	return strings.Join(parts, " ")
}
