package logger

import (
	"strings"

	"go.uber.org/fx/fxevent"
)

// FxLoggerAdapter forwards fx lifecycle events to a Logger.
// Successful wiring events are reported at DEBUG, failures at ERROR.
type FxLoggerAdapter struct {
	log Logger
}

// NewFxLoggerAdapter creates an fxevent.Logger writing through the global Logger.
func NewFxLoggerAdapter() fxevent.Logger {
	return &FxLoggerAdapter{log: Default()}
}

// LogEvent logs events from fx.
func (l *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		l.hook("OnStart", e.FunctionName, e.Err)
	case *fxevent.OnStopExecuted:
		l.hook("OnStop", e.FunctionName, e.Err)
	case *fxevent.Provided:
		if e.Err != nil {
			l.log.Errorf("Provide error: %v", e.Err)
			return
		}
		for _, rtype := range e.OutputTypeNames {
			l.log.Debugf("Provided: %s", rtype)
		}
	case *fxevent.Supplied:
		if e.Err != nil {
			l.log.Errorf("Supplied failed: %v", e.Err)
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.log.Errorf("Invoke failed: %s, error: %v", shortFunctionName(e.FunctionName), e.Err)
		}
	case *fxevent.RollingBack:
		l.log.Errorf("Start failed, rolling back, error: %v", e.StartErr)
	case *fxevent.Started:
		if e.Err != nil {
			l.log.Errorf("Start failed, error: %v", e.Err)
		} else {
			l.log.Debugf("Application started.")
		}
	case *fxevent.Stopping:
		l.log.Debugf("Stopping signal received: %s", e.Signal)
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.log.Errorf("Logger initialization failed, error: %v", e.Err)
		}
	}
}

func (l *FxLoggerAdapter) hook(kind, funcName string, err error) {
	if err != nil {
		l.log.Errorf("%s hook failed: %s, error: %v", kind, shortFunctionName(funcName), err)
		return
	}
	l.log.Debugf("%s hook executed: %s", kind, shortFunctionName(funcName))
}

// shortFunctionName strips the anonymous ".funcN" suffix fx reports for closures.
func shortFunctionName(funcName string) string {
	if idx := strings.LastIndex(funcName, ".func"); idx != -1 {
		return funcName[:idx]
	}
	return funcName
}
