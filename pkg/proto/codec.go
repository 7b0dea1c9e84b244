package proto

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Command header encoding: this module treats the wire codec as an
// external dependency (spec §1, "assumed available as a library"); what
// follows is the minimal stand-in used so the core has something concrete
// to decode and dispatch on. A production deployment would replace this
// with the real binary codec shared with brokers.

type wireTag byte

const (
	tagConnect wireTag = iota + 1
	tagConnected
	tagAuthChallenge
	tagAuthResponse
	tagPing
	tagPong
	tagLookup
	tagLookupResponse
	tagPartitionedMetadata
	tagGetSchema
	tagGetOrCreateSchema
	tagCloseConsumer
	tagCloseProducer
	tagErrorCmd
	tagDataPlane
)

var tagToName = map[wireTag]CommandName{
	tagConnect:             CmdConnect,
	tagConnected:           CmdConnected,
	tagAuthChallenge:       CmdAuthChallenge,
	tagAuthResponse:        CmdAuthResponse,
	tagPing:                CmdPing,
	tagPong:                CmdPong,
	tagLookup:              CmdLookup,
	tagLookupResponse:      CmdLookupResponse,
	tagPartitionedMetadata: CmdPartitionedMetadata,
	tagGetSchema:           CmdGetSchema,
	tagGetOrCreateSchema:   CmdGetOrCreateSchema,
	tagCloseConsumer:       CmdCloseConsumer,
	tagCloseProducer:       CmdCloseProducer,
	tagErrorCmd:            CmdError,
}

var nameToTag = func() map[CommandName]wireTag {
	m := make(map[CommandName]wireTag, len(tagToName))
	for t, n := range tagToName {
		m[n] = t
	}
	return m
}()

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func readString(b []byte) (string, []byte, error) {
	if len(b) < 4 {
		return "", nil, fmt.Errorf("proto: truncated string length")
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint32(len(b)) < n {
		return "", nil, fmt.Errorf("proto: truncated string body")
	}
	return string(b[:n]), b[n:], nil
}

// EncodeCommand serializes cmd into a frame header. Data-plane commands
// that still need a topic (Producer/Subscribe, for broker-target
// extraction per spec §4.3) are encoded with tagDataPlane plus the
// original name so the decoder can recover both.
func EncodeCommand(cmd *Command) ([]byte, error) {
	var buf bytes.Buffer

	tag, isControl := nameToTag[cmd.Name]
	if !isControl {
		buf.WriteByte(byte(tagDataPlane))
		writeString(&buf, string(cmd.Name))
	} else {
		buf.WriteByte(byte(tag))
	}

	var reqID [8]byte
	binary.BigEndian.PutUint64(reqID[:], cmd.RequestID)
	buf.Write(reqID[:])

	var proto32 [4]byte
	binary.BigEndian.PutUint32(proto32[:], uint32(cmd.ProtocolVersion))
	buf.Write(proto32[:])

	writeString(&buf, cmd.AuthMethodName)
	writeString(&buf, string(cmd.AuthData))
	writeString(&buf, cmd.Topic)
	if cmd.Authoritative {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeString(&buf, cmd.ProducerTopic)
	writeString(&buf, cmd.BrokerServiceURL)
	writeString(&buf, cmd.OriginalPrincipal)

	var respKind [4]byte
	binary.BigEndian.PutUint32(respKind[:], uint32(cmd.ResponseKind))
	buf.Write(respKind[:])
	if cmd.ProxyThroughServiceURL {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeString(&buf, string(cmd.ReplyErrorKind))
	writeString(&buf, cmd.ReplyErrorMessage)

	writeString(&buf, string(cmd.Raw))

	return buf.Bytes(), nil
}

// DecodeCommand parses a frame header produced by EncodeCommand.
func DecodeCommand(header []byte) (*Command, error) {
	if len(header) < 1 {
		return nil, fmt.Errorf("proto: empty command header")
	}
	tag := wireTag(header[0])
	rest := header[1:]

	cmd := &Command{}
	if tag == tagDataPlane {
		name, r, err := readString(rest)
		if err != nil {
			return nil, err
		}
		cmd.Name = CommandName(name)
		rest = r
	} else {
		name, ok := tagToName[tag]
		if !ok {
			return nil, fmt.Errorf("proto: unknown command tag %d", tag)
		}
		cmd.Name = name
	}

	// Error replies are written by EncodeCommandError in a shorter,
	// dedicated layout (tag, request ID, kind, message) rather than the
	// full Command layout below, so they're decoded separately here.
	if tag == tagErrorCmd {
		if len(rest) < 8 {
			return nil, fmt.Errorf("proto: truncated error command fields")
		}
		cmd.RequestID = binary.BigEndian.Uint64(rest[:8])
		rest = rest[8:]

		kind, rest2, err := readString(rest)
		if err != nil {
			return nil, err
		}
		cmd.ReplyErrorKind = ErrorKind(kind)

		msg, _, err := readString(rest2)
		if err != nil {
			return nil, err
		}
		cmd.ReplyErrorMessage = msg
		return cmd, nil
	}

	if len(rest) < 12 {
		return nil, fmt.Errorf("proto: truncated command fields")
	}
	cmd.RequestID = binary.BigEndian.Uint64(rest[:8])
	rest = rest[8:]
	cmd.ProtocolVersion = int32(binary.BigEndian.Uint32(rest[:4]))
	rest = rest[4:]

	var s string
	var err error
	if s, rest, err = readString(rest); err != nil {
		return nil, err
	}
	cmd.AuthMethodName = s

	if s, rest, err = readString(rest); err != nil {
		return nil, err
	}
	cmd.AuthData = []byte(s)

	if s, rest, err = readString(rest); err != nil {
		return nil, err
	}
	cmd.Topic = s

	if len(rest) < 1 {
		return nil, fmt.Errorf("proto: truncated authoritative flag")
	}
	cmd.Authoritative = rest[0] == 1
	rest = rest[1:]

	if s, rest, err = readString(rest); err != nil {
		return nil, err
	}
	cmd.ProducerTopic = s

	if s, rest, err = readString(rest); err != nil {
		return nil, err
	}
	cmd.BrokerServiceURL = s

	if s, rest, err = readString(rest); err != nil {
		return nil, err
	}
	cmd.OriginalPrincipal = s

	if len(rest) < 4 {
		return nil, fmt.Errorf("proto: truncated response kind")
	}
	cmd.ResponseKind = LookupResponseKind(binary.BigEndian.Uint32(rest[:4]))
	rest = rest[4:]

	if len(rest) < 1 {
		return nil, fmt.Errorf("proto: truncated proxy-through-service-url flag")
	}
	cmd.ProxyThroughServiceURL = rest[0] == 1
	rest = rest[1:]

	if s, rest, err = readString(rest); err != nil {
		return nil, err
	}
	cmd.ReplyErrorKind = ErrorKind(s)

	if s, rest, err = readString(rest); err != nil {
		return nil, err
	}
	cmd.ReplyErrorMessage = s

	if s, _, err = readString(rest); err != nil {
		return nil, err
	}
	cmd.Raw = []byte(s)

	return cmd, nil
}

// EncodeCommandError serializes a CommandError as an Error command header.
func EncodeCommandError(e *CommandError) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(tagErrorCmd))
	var reqID [8]byte
	binary.BigEndian.PutUint64(reqID[:], e.RequestID)
	buf.Write(reqID[:])
	writeString(&buf, string(e.Kind))
	writeString(&buf, e.Message)
	return buf.Bytes()
}
