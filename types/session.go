package types

// SplitSession is one browser's set of pending artifacts.
type SplitSession struct {
	Token   string
	Uploads []string // upload file paths not yet consumed by a split
	Splits  []string // output directories not yet downloaded
}

// SessionSnapshot is a copy of a session record safe to hand out.
type SessionSnapshot struct {
	Token   string   `json:"token"`
	Uploads []string `json:"uploads"`
	Splits  []string `json:"splits"`
}
