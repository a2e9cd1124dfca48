package protocol

// ErrorCode identifies the type of error reported to the producer.
type ErrorCode uint16

const (
	CodeUnknown      ErrorCode = 0x0000 // Unknown error
	CodeInvalidFrame ErrorCode = 0x0001 // Malformed frame
	CodeMalformed    ErrorCode = 0x0002 // Edit batch failed to decode
	CodeViolation    ErrorCode = 0x0003 // Batch aborted on a protocol violation
	CodeHydration    ErrorCode = 0x0004 // Hydration completed with mismatches
	CodeInternal     ErrorCode = 0x0100 // Internal host error
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case CodeInvalidFrame:
		return "InvalidFrame"
	case CodeMalformed:
		return "Malformed"
	case CodeViolation:
		return "Violation"
	case CodeHydration:
		return "Hydration"
	case CodeInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// ErrorMessage is sent when a frame could not be applied.
type ErrorMessage struct {
	Code    ErrorCode // Error code
	Seq     uint64    // Sequence number of the offending batch
	Index   int       // Offending record index, or -1
	Message string    // Human-readable error message
	Fatal   bool      // If true, connection should be closed
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteUvarint(em.Seq)
	// Index is shifted by one so -1 encodes as zero.
	e.WriteUvarint(uint64(em.Index + 1))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	index, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if index > MaxCollectionCount+1 {
		return nil, ErrCollectionTooLarge
	}
	message, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	return &ErrorMessage{
		Code:    ErrorCode(code),
		Seq:     seq,
		Index:   int(index) - 1,
		Message: message,
		Fatal:   fatal,
	}, nil
}

// NewError creates a new non-fatal ErrorMessage.
func NewError(code ErrorCode, seq uint64, index int, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Seq: seq, Index: index, Message: message}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}
