package types

// Progress is reported after each scanned candidate
type Progress struct {
	Index   int    // 1-based index of the candidate just scanned
	Total   int    // Number of candidates in the session
	Matches int    // Cumulative match count so far
	Name    string // Candidate just scanned
}

// Observer receives advisory progress and recoverable warnings from a session.
// Neither affects correctness.
type Observer interface {
	Progress(p Progress)
	Warning(err error)
}

// ObserverFuncs adapts plain functions to Observer; nil fields are ignored
type ObserverFuncs struct {
	OnProgress func(Progress)
	OnWarning  func(error)
}

func (o ObserverFuncs) Progress(p Progress) {
	if o.OnProgress != nil {
		o.OnProgress(p)
	}
}

func (o ObserverFuncs) Warning(err error) {
	if o.OnWarning != nil {
		o.OnWarning(err)
	}
}

// NopObserver discards everything
var NopObserver Observer = ObserverFuncs{}
