package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeSubscribe  = "SUBSCRIBE"
	TypeTickReport = "TICK_REPORT"
	TypeSummary    = "SUMMARY"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// IsTerminalRunState reports whether a run state string names a state
// that will never produce another tick report.
func IsTerminalRunState(s string) bool {
	return s == "COMPLETED" || s == "HALTED_NO_SURVIVORS"
}
