// Package logging builds the go-kit logfmt logger shared by the commands.
package logging

import (
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Levels accepted by --log-level.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// New returns a timestamped logfmt logger writing to w, filtered at lvl.
func New(w io.Writer, lvl string) (log.Logger, error) {
	opt, err := option(lvl)
	if err != nil {
		return nil, err
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, opt), nil
}

// ValidLevel reports whether lvl is accepted by New.
func ValidLevel(lvl string) bool {
	_, err := option(lvl)
	return err == nil
}

func option(lvl string) (level.Option, error) {
	switch lvl {
	case LevelDebug:
		return level.AllowDebug(), nil
	case LevelInfo, "":
		return level.AllowInfo(), nil
	case LevelWarn:
		return level.AllowWarn(), nil
	case LevelError:
		return level.AllowError(), nil
	}
	return nil, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", lvl)
}
