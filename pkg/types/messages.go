package types

// Client -> Server (websocket)
//
// Choose:
//   choice: Choice
//
// Server -> Client (websocket)
//
// StateSnapshot:
//   snapshot: Snapshot
//
// Error (sent only to the client whose message failed):
//   error: string

const (
	MsgChoose        = "Choose"
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
)

type ClientMessage struct {
	Type   string  `json:"type"`
	Choice *Choice `json:"choice,omitempty"`
}

type ServerMessage struct {
	Type     string    `json:"type"` // "StateSnapshot" | "Error"
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Choice mirrors a decision. Kind is one of idle, face, assist, secure,
// backtrace, pass, skill, flow, move, reorder, heal, discard; the other fields
// are read only for the kinds that use them.
type Choice struct {
	Kind   string `json:"kind"`
	Skill  string `json:"skill,omitempty"`
	Source int    `json:"source,omitempty"`
	Target int    `json:"target,omitempty"`
	Slot   int    `json:"slot,omitempty"`
	Order  []int  `json:"order,omitempty"`
}

// HTTP bodies

type CreateSessionRequest struct {
	Difficulty string   `json:"difficulty"`
	Operators  []string `json:"operators"`
	// Seed replays a known shuffle when the server allows it.
	Seed *uint64 `json:"seed,omitempty"`
}

type CreateSessionResponse struct {
	Code string `json:"code"`
	Seed uint64 `json:"seed"`
}

type ChooseRequest struct {
	Choice Choice `json:"choice"`
}

type ChooseResponse struct {
	Events   []Event  `json:"events"`
	Snapshot Snapshot `json:"snapshot"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
