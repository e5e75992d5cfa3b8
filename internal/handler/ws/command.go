package ws

// Command is the closed set of frames a client may send. Adding a command
// means adding a constant, its name, and a dispatch case; anything the
// parser does not recognize is a protocol violation.
type Command int

const (
	CommandLogin Command = iota
	CommandReadMessage
	CommandWhiteboard
	CommandCallInvite
	CommandCallAnswer
	CommandCallIceCandidate
	CommandCallEnd
)

var commandNames = map[string]Command{
	"login":              CommandLogin,
	"read_message":       CommandReadMessage,
	"whiteboard":         CommandWhiteboard,
	"call-invite":        CommandCallInvite,
	"call-answer":        CommandCallAnswer,
	"call-ice-candidate": CommandCallIceCandidate,
	"call-end":           CommandCallEnd,
}

var commandStrings = func() map[Command]string {
	out := make(map[Command]string, len(commandNames))
	for name, cmd := range commandNames {
		out[cmd] = name
	}
	return out
}()

// ParseCommand maps a wire command name to its Command.
func ParseCommand(name string) (Command, bool) {
	cmd, ok := commandNames[name]
	return cmd, ok
}

// String returns the wire name of the command.
func (c Command) String() string {
	return commandStrings[c]
}
