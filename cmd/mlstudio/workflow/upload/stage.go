package upload

import "fmt"

// Stage of an upload workflow.
type Stage int

const (
	SelectTarget Stage = iota
	Configure
	SelectFiles
	Uploading
	Polling
	Done
	Failed
)

func (s Stage) String() string {
	switch s {
	case SelectTarget:
		return "select target"
	case Configure:
		return "configure"
	case SelectFiles:
		return "select files"
	case Uploading:
		return "uploading"
	case Polling:
		return "polling"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown stage (%d)", int(s))
	}
}
