package app

// View is the screen the client should show
type View int

const (
	ViewWaiting View = iota
	ViewLanding
	ViewUpload
	ViewAnalyzing
	ViewChat
)

func (v View) String() string {
	switch v {
	case ViewWaiting:
		return "waiting"
	case ViewLanding:
		return "landing"
	case ViewUpload:
		return "upload"
	case ViewAnalyzing:
		return "analyzing"
	case ViewChat:
		return "chat"
	default:
		return "unknown"
	}
}
