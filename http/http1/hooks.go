package http1

// Hooks are the checkpoints an application attaches its behavior to. The hooks are named
// after the message, not after the direction: a server runs BeforeRequest before reading
// a request, while a client runs it before writing one.
//
// Every hook may return Pending to suspend its phase. The phase is retried, together with
// the hook, once Session.Resume is called. Failed closes the connection.
type Hooks interface {
	BeforeRequest(s *Session) Outcome
	AfterRequest(s *Session) Outcome
	BeforeResponse(s *Session) Outcome
	AfterResponse(s *Session) Outcome
}

// NopHooks complete every checkpoint immediately. Embed it to override only the needed
// hooks.
type NopHooks struct{}

func (NopHooks) BeforeRequest(*Session) Outcome  { return Done }
func (NopHooks) AfterRequest(*Session) Outcome   { return Done }
func (NopHooks) BeforeResponse(*Session) Outcome { return Done }
func (NopHooks) AfterResponse(*Session) Outcome  { return Done }

// StopHook may additionally be implemented by Hooks to get notified once the connection
// is closed.
type StopHook interface {
	OnStop(s *Session)
}
