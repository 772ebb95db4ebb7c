package log

const ansiReset = "\033[0m"

// ANSI foreground color of each level on a terminal.
var levelColors = map[LogLevel]string{
	Debug: "\033[34m",
	Info:  "\033[32m",
	Warn:  "\033[33m",
	Error: "\033[31m",
	Fatal: "\033[1;35m",
}

// colorize wraps line in the color of level. Unknown levels stay plain.
func colorize(level LogLevel, line string) string {
	color, ok := levelColors[level]
	if !ok {
		return line
	}

	return color + line + ansiReset
}
