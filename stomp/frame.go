// Package stomp implements the STOMP 1.2 frame grammar: parsing a wire
// buffer into a Frame and emitting a Frame back into canonical bytes.
// Grounded on the header/body/command shape used throughout
// github.com/wjmboss/stompngo (data.go) and the transport's Encoder/Decoder
// split in github.com/djoyahoy/stomp (transport.go), generalized into one
// side-agnostic Parse/Emit pair.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stomp

import (
	"strconv"
)

// Command is a recognized STOMP 1.2 frame command.
type Command string

const (
	CmdSTOMP       Command = "STOMP"
	CmdCONNECT     Command = "CONNECT"
	CmdCONNECTED   Command = "CONNECTED"
	CmdSEND        Command = "SEND"
	CmdSUBSCRIBE   Command = "SUBSCRIBE"
	CmdUNSUBSCRIBE Command = "UNSUBSCRIBE"
	CmdACK         Command = "ACK"
	CmdNACK        Command = "NACK"
	CmdBEGIN       Command = "BEGIN"
	CmdCOMMIT      Command = "COMMIT"
	CmdABORT       Command = "ABORT"
	CmdDISCONNECT  Command = "DISCONNECT"
	CmdMESSAGE     Command = "MESSAGE"
	CmdRECEIPT     Command = "RECEIPT"
	CmdERROR       Command = "ERROR"

	// CmdInvalid is the Command reported on a frame that failed to parse.
	CmdInvalid Command = "Invalid"
)

var knownCommands = map[Command]bool{
	CmdSTOMP: true, CmdCONNECT: true, CmdCONNECTED: true, CmdSEND: true,
	CmdSUBSCRIBE: true, CmdUNSUBSCRIBE: true, CmdACK: true, CmdNACK: true,
	CmdBEGIN: true, CmdCOMMIT: true, CmdABORT: true, CmdDISCONNECT: true,
	CmdMESSAGE: true, CmdRECEIPT: true, CmdERROR: true,
}

// Common header names.
const (
	HdrAcceptVersion  = "accept-version"
	HdrHost           = "host"
	HdrLogin          = "login"
	HdrPasscode       = "passcode"
	HdrHeartBeat      = "heart-beat"
	HdrVersion        = "version"
	HdrSession        = "session"
	HdrServer         = "server"
	HdrDestination    = "destination"
	HdrID             = "id"
	HdrAck            = "ack"
	HdrReceipt        = "receipt"
	HdrReceiptID      = "receipt-id"
	HdrSubscription   = "subscription"
	HdrMessageID      = "message-id"
	HdrTransaction    = "transaction"
	HdrContentType    = "content-type"
	HdrContentLength  = "content-length"
	HdrMessage        = "message"
)

// requiredHeaders lists, per command, the headers Validate demands be
// present (and non-empty — Parse already guarantees non-empty values).
var requiredHeaders = map[Command][]string{
	CmdSTOMP:     {HdrAcceptVersion, HdrHost},
	CmdCONNECT:   {HdrAcceptVersion, HdrHost},
	CmdSEND:      {HdrDestination},
	CmdSUBSCRIBE: {HdrID, HdrDestination},
	CmdMESSAGE:   {HdrSubscription, HdrMessageID, HdrDestination},
	CmdCONNECTED: {HdrVersion},
	CmdRECEIPT:   {HdrReceiptID},
}

// header is one name:value pair in wire order. Repeated names are all kept
// (for round-trip emission) but Get/lookup honors only the first.
type header struct {
	name  string
	value string
}

// Frame is one STOMP 1.2 protocol unit. The zero Frame is not valid; build
// one with New or obtain one from Parse.
type Frame struct {
	Command Command
	headers []header
	Body    []byte
}

// New builds a Frame from a command and an ordered set of header pairs;
// len(kv) must be even. Later duplicate names are retained for Emit but
// Header() resolves to the first occurrence, matching Parse.
func New(cmd Command, body []byte, kv ...string) *Frame {
	f := &Frame{Command: cmd, Body: body}
	for i := 0; i+1 < len(kv); i += 2 {
		f.headers = append(f.headers, header{name: kv[i], value: kv[i+1]})
	}
	return f
}

// Header returns the first occurrence of name, and whether it was present.
func (f *Frame) Header(name string) (string, bool) {
	for _, h := range f.headers {
		if h.name == name {
			return h.value, true
		}
	}
	return "", false
}

// HeaderOr returns Header(name), or def if absent.
func (f *Frame) HeaderOr(name, def string) string {
	if v, ok := f.Header(name); ok {
		return v
	}
	return def
}

// SetHeader appends a header pair, even if name is already present —
// mirrors STOMP wire semantics where a frame can legally carry a duplicate
// header name (first occurrence still wins on lookup).
func (f *Frame) SetHeader(name, value string) {
	f.headers = append(f.headers, header{name: name, value: value})
}

// Validate checks the per-command required-header rules and the
// content-length/body-length agreement from §4.1.
func (f *Frame) Validate() error {
	if !knownCommands[f.Command] {
		return &ParseError{Kind: ErrValidationInvalidCommand, Detail: string(f.Command)}
	}
	for _, name := range requiredHeaders[f.Command] {
		if _, ok := f.Header(name); !ok {
			return &ValidationError{Command: f.Command, MissingHeader: name}
		}
	}
	if cl, ok := f.Header(HdrContentLength); ok {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 {
			return &ParseError{Kind: ErrValidationInvalidContentLength, Detail: cl}
		}
		if n != len(f.Body) {
			return &ParseError{Kind: ErrValidationContentLengthMismatch, Detail: "content-length/body mismatch"}
		}
	}
	return nil
}
