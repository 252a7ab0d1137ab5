package sshbus

// The wire protocol is three Redis structures shared by every client and
// the daemon on the other end of the tunnel:
//
//   - callsKey is a list. A Call RPUSHes a JSON callEnvelope onto it;
//     the daemon BLPOPs it, dispatches the method, and either answers
//     immediately or defers.
//   - replyKeyPrefix+<id> is a list the daemon RPUSHes exactly one
//     JSON replyEnvelope onto once it has a synchronous answer. The
//     client BLPOPs it with a short poll so a slow method degrades into
//     an async Pending reply rather than blocking forever.
//   - signalsChannel is a pubsub channel the daemon publishes
//     wireSignal frames on: a deferred call's eventual completion, or a
//     device discovery delta. Both frame kinds multiplex over the one
//     channel, matching a real deployment's single bus connection.
const (
	callsKey       = "ifworker:calls"
	replyKeyPrefix = "ifworker:reply:"
	signalsChannel = "ifworker:signals"
)

// callEnvelope is the JSON document RPUSHed onto callsKey.
type callEnvelope struct {
	ID         string         `json:"id"`
	ObjectPath string         `json:"object_path"`
	Service    string         `json:"service"`
	Method     string         `json:"method"`
	Args       map[string]any `json:"args"`
}

// replyEnvelope is the JSON document RPUSHed onto replyKeyPrefix+ID.
type replyEnvelope struct {
	ID        string         `json:"id"`
	Document  map[string]any `json:"document,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
	ErrorText string         `json:"error_text,omitempty"`
}

// wireSignalKind mirrors rpcbus.SignalKind on the wire.
type wireSignalKind int

const (
	wireCompletion wireSignalKind = iota
	wireDeviceCreated
	wireDeviceDeleted
	wireLinkChanged
)

// wireSignal is the JSON document published on signalsChannel.
type wireSignal struct {
	Kind wireSignalKind `json:"kind"`

	CallbackID string `json:"callback_id,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	ErrorText  string `json:"error_text,omitempty"`

	ObjectPath string `json:"object_path,omitempty"`
	IfIndex    int    `json:"ifindex,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Known error codes a daemon reply or signal may carry; anything else
// maps to rpcbus.ErrRemote.
const (
	errCodeNoSuchObject = "no-such-object"
	errCodeNoSuchMethod = "no-such-method"
	errCodeBadArgument  = "bad-argument"
)
