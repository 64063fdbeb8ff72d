package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/agendad/internal/model"
)

type Type string

const (
	TypeFilter   Type = "filter"
	TypeWindow   Type = "window"
	TypeSeverity Type = "severity"
	TypeSort     Type = "sort"
	TypeGroup    Type = "group"
	TypeRefresh  Type = "refresh"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type FilterArgs struct {
	Sources []model.Source
}

type WindowArgs struct {
	Hours int
}

type SeverityArgs struct {
	Min int
}

type SortArgs struct {
	Key string // scheduled_at | severity
	Dir string // asc | desc
}

type Command struct {
	Type     Type
	Raw      string
	Filter   *FilterArgs
	Window   *WindowArgs
	Severity *SeverityArgs
	Sort     *SortArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeFilter:
		return parseFilter(input, args)
	case TypeWindow:
		return parseWindow(input, args)
	case TypeSeverity:
		return parseSeverity(input, args)
	case TypeSort:
		return parseSort(input, args)
	case TypeGroup:
		return Command{Type: TypeGroup, Raw: input}, nil
	case TypeRefresh:
		return Command{Type: TypeRefresh, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter requires a source list, e.g. filter task,event"}
	}
	if strings.EqualFold(args[0], "all") {
		return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Sources: model.AllSources()}}, nil
	}
	var sources []model.Source
	for _, part := range strings.Split(args[0], ",") {
		s := model.Source(strings.ToLower(strings.TrimSpace(part)))
		if !s.IsValid() {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown source: %s", part)}
		}
		sources = append(sources, s)
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Sources: sources}}, nil
}

func parseWindow(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "window requires hours or days, e.g. window 72 or window 7d"}
	}
	arg := strings.ToLower(args[0])
	multiplier := 1
	if strings.HasSuffix(arg, "d") {
		multiplier = 24
		arg = strings.TrimSuffix(arg, "d")
	} else {
		arg = strings.TrimSuffix(arg, "h")
	}
	hours, err := strconv.Atoi(arg)
	if err != nil || hours <= 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid window: %s", args[0])}
	}
	hours *= multiplier
	if hours < model.MinWindowHours {
		hours = model.MinWindowHours
	}
	if hours > model.MaxWindowHours {
		hours = model.MaxWindowHours
	}
	return Command{Type: TypeWindow, Raw: raw, Window: &WindowArgs{Hours: hours}}, nil
}

func parseSeverity(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "severity requires a minimum score, e.g. severity 14"}
	}
	min, err := strconv.Atoi(args[0])
	if err != nil || min < 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid severity threshold: %s", args[0])}
	}
	return Command{Type: TypeSeverity, Raw: raw, Severity: &SeverityArgs{Min: min}}, nil
}

func parseSort(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "sort requires a key, e.g. sort severity desc"}
	}
	var key string
	switch strings.ToLower(args[0]) {
	case "time", "scheduled_at":
		key = "scheduled_at"
	case "severity":
		key = "severity"
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown sort key: %s", args[0])}
	}
	dir := "asc"
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "asc", "desc":
			dir = strings.ToLower(args[1])
		default:
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown sort direction: %s", args[1])}
		}
	}
	return Command{Type: TypeSort, Raw: raw, Sort: &SortArgs{Key: key, Dir: dir}}, nil
}
