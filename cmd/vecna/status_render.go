package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"vecna/internal/pipeline"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 12
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

// stateColors maps presentation color names to ANSI sequences.
var stateColors = map[string]string{
	"gray":   "\x1b[90m",
	"blue":   ansiBlue,
	"orange": "\x1b[38;5;208m",
	"cyan":   "\x1b[36m",
	"yellow": ansiYellow,
	"teal":   "\x1b[38;5;30m",
	"indigo": "\x1b[38;5;61m",
	"purple": "\x1b[35m",
	"amber":  "\x1b[38;5;214m",
	"green":  ansiGreen,
	"red":    ansiRed,
}

// renderState returns the state's label, colored when colorize is set.
func renderState(state pipeline.State, colorize bool) string {
	meta := pipeline.Meta(state)
	if !colorize {
		return string(state)
	}
	if color, ok := stateColors[meta.Color]; ok {
		return color + string(state) + ansiReset
	}
	return string(state)
}

func renderTransition(from, to pipeline.State, colorize bool) string {
	return fmt.Sprintf("%s -> %s", renderState(from, colorize), renderState(to, colorize))
}

func renderFlags(hasRulebook, hasContent, published bool) string {
	var parts []string
	if hasRulebook {
		parts = append(parts, "rulebook")
	}
	if hasContent {
		parts = append(parts, "content")
	}
	if published {
		parts = append(parts, "live")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
