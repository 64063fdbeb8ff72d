package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Filter   func(FilterArgs) (Result, error)
	Window   func(WindowArgs) (Result, error)
	Severity func(SeverityArgs) (Result, error)
	Sort     func(SortArgs) (Result, error)
	Group    func() (Result, error)
	Refresh  func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeFilter:
		if handlers.Filter == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "filter handler not configured"}
		}
		return handlers.Filter(*cmd.Filter)
	case TypeWindow:
		if handlers.Window == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "window handler not configured"}
		}
		return handlers.Window(*cmd.Window)
	case TypeSeverity:
		if handlers.Severity == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "severity handler not configured"}
		}
		return handlers.Severity(*cmd.Severity)
	case TypeSort:
		if handlers.Sort == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "sort handler not configured"}
		}
		return handlers.Sort(*cmd.Sort)
	case TypeGroup:
		if handlers.Group == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "group handler not configured"}
		}
		return handlers.Group()
	case TypeRefresh:
		if handlers.Refresh == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "refresh handler not configured"}
		}
		return handlers.Refresh()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
