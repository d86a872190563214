package log

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const timeFormat = "060102 15:04:05.000"

func setupSLog(w io.Writer) {
	// Only colorize when writing to a terminal.
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	logHandler := tint.NewHandler(w, &tint.Options{
		AddSource:  true,
		Level:      slogLevel,
		TimeFormat: timeFormat,
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Give trace records a readable level name.
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= slogTraceLevel {
					return slog.String(slog.LevelKey, "TRC")
				}
			}
			return a
		},
	})

	// Set as default logger.
	slog.SetDefault(slog.New(logHandler))
}
