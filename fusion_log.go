package fusion

import (
	"io"

	"github.com/intuitionamiga/irfusion/internal/plog"
)

// Logger is the injectable sink every stage worker reports transient
// pipeline pressure through: a "<Component>: <message>" line written to a
// caller-supplied io.Writer so tests can capture it instead of stderr.
type Logger = plog.Logger

func newLogger(component string, w io.Writer) *Logger {
	return plog.New(component, w)
}
