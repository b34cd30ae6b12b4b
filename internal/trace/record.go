package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the access direction of a record.
type Kind int

const (
	Read Kind = iota
	Write
)

func (k Kind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Format selects the record layout.
type Format int

const (
	FormatAuto Format = iota
	FormatLegacy
	FormatFrame
)

const (
	legacyFields = 4
	frameFields  = 7
)

// ParseFormat maps a config value to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return FormatAuto, nil
	case "legacy":
		return FormatLegacy, nil
	case "frame":
		return FormatFrame, nil
	default:
		return FormatAuto, fmt.Errorf("unknown trace format %q", value)
	}
}

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatFrame:
		return "frame"
	default:
		return "auto"
	}
}

// Record is one parsed trace line.
type Record struct {
	Frame    int64
	HasFrame bool
	Kind     Kind
	Address  uint64
	Value    uint64
}

// Reason classifies why a line was rejected.
type Reason string

const (
	ReasonEmpty      Reason = "empty"
	ReasonFieldCount Reason = "field_count"
	ReasonKind       Reason = "kind"
	ReasonAddress    Reason = "address"
	ReasonValue      Reason = "value"
	ReasonFrame      Reason = "frame"
)

// Sentinel errors, one per Reason.
var (
	ErrEmpty      = errors.New("empty line")
	ErrFieldCount = errors.New("unexpected field count")
	ErrKind       = errors.New("unrecognized access kind")
	ErrAddress    = errors.New("invalid address")
	ErrValue      = errors.New("invalid value")
	ErrFrame      = errors.New("invalid frame number")
)

var reasonErrors = map[Reason]error{
	ReasonEmpty:      ErrEmpty,
	ReasonFieldCount: ErrFieldCount,
	ReasonKind:       ErrKind,
	ReasonAddress:    ErrAddress,
	ReasonValue:      ErrValue,
	ReasonFrame:      ErrFrame,
}

// ParseError reports a discarded line.
type ParseError struct {
	Reason Reason
	Line   string
	Err    error
}

func (e *ParseError) Error() string {
	base := reasonErrors[e.Reason]
	if e.Err != nil {
		return fmt.Sprintf("parse %q: %v: %v", e.Line, base, e.Err)
	}
	return fmt.Sprintf("parse %q: %v", e.Line, base)
}

// Is lets errors.Is match the sentinel for the reason.
func (e *ParseError) Is(target error) bool {
	return reasonErrors[e.Reason] == target
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func reject(reason Reason, line string, err error) error {
	return &ParseError{Reason: reason, Line: line, Err: err}
}

// ParseLine parses a single trace line under the given format.
func ParseLine(line string, format Format) (Record, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Record{}, reject(ReasonEmpty, line, nil)
	}
	fields := strings.Split(trimmed, ",")

	switch format {
	case FormatLegacy:
		if len(fields) != legacyFields {
			return Record{}, reject(ReasonFieldCount, line, nil)
		}
		return parseLegacy(fields, line)
	case FormatFrame:
		if len(fields) != frameFields {
			return Record{}, reject(ReasonFieldCount, line, nil)
		}
		return parseFrame(fields, line)
	default:
		switch len(fields) {
		case legacyFields:
			return parseLegacy(fields, line)
		case frameFields:
			return parseFrame(fields, line)
		default:
			return Record{}, reject(ReasonFieldCount, line, nil)
		}
	}
}

func parseLegacy(fields []string, line string) (Record, error) {
	var rec Record
	switch strings.TrimSpace(fields[0]) {
	case "read":
		rec.Kind = Read
	case "write":
		rec.Kind = Write
	default:
		return Record{}, reject(ReasonKind, line, nil)
	}
	addr, err := parseHex(fields[1])
	if err != nil {
		return Record{}, reject(ReasonAddress, line, err)
	}
	value, err := parseHex(fields[3])
	if err != nil {
		return Record{}, reject(ReasonValue, line, err)
	}
	rec.Address = addr
	rec.Value = value
	return rec, nil
}

func parseFrame(fields []string, line string) (Record, error) {
	frame, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil || frame < 0 {
		return Record{}, reject(ReasonFrame, line, err)
	}
	rec := Record{Frame: frame, HasFrame: true}
	switch strings.TrimSpace(fields[1]) {
	case "R":
		rec.Kind = Read
	case "W":
		rec.Kind = Write
	default:
		return Record{}, reject(ReasonKind, line, nil)
	}
	addr, err := parseHex(fields[2])
	if err != nil {
		return Record{}, reject(ReasonAddress, line, err)
	}
	value, err := parseHex(fields[3])
	if err != nil {
		return Record{}, reject(ReasonValue, line, err)
	}
	rec.Address = addr
	rec.Value = value
	return rec, nil
}

func parseHex(field string) (uint64, error) {
	s := strings.TrimSpace(field)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if s == "" {
		return 0, fmt.Errorf("empty hex field")
	}
	return strconv.ParseUint(s, 16, 64)
}
