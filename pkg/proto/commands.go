package proto

// CommandName identifies the kind of a decoded Command.
type CommandName string

// Control-plane commands are always handled locally by the lookup path.
const (
	CmdConnect             CommandName = "Connect"
	CmdConnected            CommandName = "Connected"
	CmdAuthChallenge        CommandName = "AuthChallenge"
	CmdAuthResponse         CommandName = "AuthResponse"
	CmdPing                 CommandName = "Ping"
	CmdPong                 CommandName = "Pong"
	CmdLookup               CommandName = "Lookup"
	CmdLookupResponse       CommandName = "LookupResponse"
	CmdPartitionedMetadata  CommandName = "PartitionedMetadata"
	CmdGetSchema            CommandName = "GetSchema"
	CmdGetOrCreateSchema    CommandName = "GetOrCreateSchema"
	CmdCloseConsumer        CommandName = "CloseConsumer"
	CmdCloseProducer        CommandName = "CloseProducer"
	CmdError                CommandName = "Error"
)

// Data-plane commands trigger the transition into splice mode on first
// receipt; after that the decoder is disabled entirely.
const (
	CmdProducer                        CommandName = "Producer"
	CmdSubscribe                       CommandName = "Subscribe"
	CmdSend                            CommandName = "Send"
	CmdAck                             CommandName = "Ack"
	CmdFlow                            CommandName = "Flow"
	CmdUnsubscribe                     CommandName = "Unsubscribe"
	CmdSeek                            CommandName = "Seek"
	CmdRedeliverUnacknowledged         CommandName = "RedeliverUnacknowledgedMessages"
	CmdGetLastMessageID                CommandName = "GetLastMessageId"
	CmdActiveConsumerChange            CommandName = "ActiveConsumerChange"
	CmdReachedEndOfTopic               CommandName = "ReachedEndOfTopic"
)

// dataPlaneCommands is the closed set that triggers splice-mode transition.
var dataPlaneCommands = map[CommandName]bool{
	CmdProducer:                true,
	CmdSubscribe:                true,
	CmdSend:                     true,
	CmdAck:                      true,
	CmdFlow:                     true,
	CmdUnsubscribe:              true,
	CmdSeek:                     true,
	CmdRedeliverUnacknowledged:  true,
	CmdGetLastMessageID:         true,
	CmdActiveConsumerChange:     true,
	CmdReachedEndOfTopic:        true,
}

// IsDataPlane reports whether name belongs to the data-plane command set
// that triggers a transition to splice mode (spec §4.2).
func IsDataPlane(name CommandName) bool {
	return dataPlaneCommands[name]
}

// lookupCommands is the closed set gated by the lookup semaphore (spec §4.4,
// §9 "conservatively gate both" topic and schema lookups identically).
var lookupCommands = map[CommandName]bool{
	CmdLookup:              true,
	CmdPartitionedMetadata: true,
	CmdGetSchema:           true,
	CmdGetOrCreateSchema:   true,
}

// IsLookup reports whether name is serviced by the lookup path and must
// acquire a lookup semaphore permit before being dispatched.
func IsLookup(name CommandName) bool {
	return lookupCommands[name]
}

// Command is the tagged union the core dispatches on. RequestID correlates
// a reply to its originating request per spec §6 ("all reply commands
// preserve the originating request_id").
type Command struct {
	Name      CommandName
	RequestID uint64

	// Connect fields.
	ProtocolVersion int32
	AuthMethodName  string
	AuthData        []byte

	// Lookup / PartitionedMetadata / GetSchema / GetOrCreateSchema fields.
	Topic         string
	Authoritative bool

	// Data-plane fields that carry a broker target or topic.
	ProducerTopic    string
	BrokerServiceURL string

	// OriginalPrincipal is the client identity the proxy propagates to
	// the backend broker on its own forwarded Lookup/metadata/schema/
	// Connect requests, so authorization decisions downstream still see
	// the real client, not the proxy's own credentials (spec §4.4).
	OriginalPrincipal string

	// Lookup/PartitionedMetadata/GetSchema/GetOrCreateSchema reply
	// fields, carried on a CmdLookupResponse.
	ResponseKind           LookupResponseKind
	ProxyThroughServiceURL bool
	ReplyErrorKind         ErrorKind
	ReplyErrorMessage      string

	// Raw is the undecoded payload for commands the proxy forwards
	// opaque-to-content (e.g. Send bodies once in splice mode never reach
	// here at all, but Producer/Subscribe still carry small headers pre-splice).
	Raw []byte
}

// LookupResponseKind is the 3-valued response carried on lookup replies.
type LookupResponseKind int

const (
	LookupConnect LookupResponseKind = iota
	LookupRedirect
	LookupFailed
)

// LookupReply is the decoded form of a broker's reply to a forwarded lookup,
// schema, or partitioned-metadata request, before the proxy rewrites it.
type LookupReply struct {
	RequestID             uint64
	Kind                  LookupResponseKind
	BrokerServiceURL       string
	Authoritative          bool
	ProxyThroughServiceURL bool
	ErrorKind              *ErrorKind
	ErrorMessage           string
}
