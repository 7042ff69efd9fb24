package services

import "time"

// Flow names reported to a FlowObserver.
const (
	FlowRegister = "register"
	FlowLogin    = "login"
	FlowRefresh  = "refresh"
	FlowLogout   = "logout"
	FlowWhoAmI   = "whoami"
)

// FlowObserver receives the result of every flow. err is the error returned
// to the caller, nil on success.
type FlowObserver interface {
	ObserveFlow(flow string, err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveFlow(string, error, time.Duration) {}
