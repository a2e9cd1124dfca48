package protocol

import (
	"encoding/json"
	"fmt"
)

// MarshalText implements encoding.TextMarshaler using the opcode name.
func (op EditOp) MarshalText() ([]byte, error) {
	name, ok := opNames[op]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidOp, uint8(op))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *EditOp) UnmarshalText(text []byte) error {
	v, ok := opByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidOp, text)
	}
	*op = v
	return nil
}

// editJSON is the text form of an Edit. Paths are written as integer arrays
// instead of base64 so fixtures stay readable.
type editJSON struct {
	Op        EditOp   `json:"op"`
	ID        *NodeID  `json:"id,omitempty"`
	Tag       string   `json:"tag,omitempty"`
	Text      *string  `json:"text,omitempty"`
	Name      string   `json:"name,omitempty"`
	Value     *string  `json:"value,omitempty"`
	Namespace string   `json:"ns,omitempty"`
	Count     uint32   `json:"count,omitempty"`
	Bubbles   bool     `json:"bubbles,omitempty"`
	Path      []int    `json:"path,omitempty"`
	Template  string   `json:"template,omitempty"`
	Index     uint32   `json:"index,omitempty"`
	IDs       []NodeID `json:"ids,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Edit) MarshalJSON() ([]byte, error) {
	out := editJSON{
		Op:        e.Op,
		Tag:       e.Tag,
		Name:      e.Name,
		Namespace: e.Namespace,
		Count:     e.Count,
		Bubbles:   e.Bubbles,
		Template:  e.Template,
		Index:     e.Index,
		IDs:       e.IDs,
	}
	switch e.Op {
	case OpLoadChild, OpPopRoot, OpReplacePlaceholder, OpSaveTemplate:
	default:
		id := e.ID
		out.ID = &id
	}
	switch e.Op {
	case OpCreateTextNode, OpSetText, OpHydrateText:
		text := e.Text
		out.Text = &text
	case OpSetAttribute:
		value := e.Value
		out.Value = &value
	}
	if len(e.Path) > 0 {
		out.Path = make([]int, len(e.Path))
		for i, step := range e.Path {
			out.Path[i] = int(step)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Edit) UnmarshalJSON(data []byte) error {
	var in editJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Edit{
		Op:        in.Op,
		Tag:       in.Tag,
		Name:      in.Name,
		Namespace: in.Namespace,
		Count:     in.Count,
		Bubbles:   in.Bubbles,
		Template:  in.Template,
		Index:     in.Index,
		IDs:       in.IDs,
	}
	if in.ID != nil {
		e.ID = *in.ID
	}
	if in.Text != nil {
		e.Text = *in.Text
	}
	if in.Value != nil {
		e.Value = *in.Value
	}
	if len(in.Path) > 0 {
		e.Path = make([]uint8, len(in.Path))
		for i, step := range in.Path {
			if step < 0 || step > 255 {
				return fmt.Errorf("protocol: path step %d out of range", step)
			}
			e.Path[i] = uint8(step)
		}
	}
	return nil
}

// ParseEditsJSON parses the text form of a batch. Both a bare array of edits
// and an object with "seq" and "edits" are accepted.
func ParseEditsJSON(data []byte) (*EditBatch, error) {
	var edits []Edit
	if err := json.Unmarshal(data, &edits); err == nil {
		return &EditBatch{Edits: edits}, nil
	}
	var b EditBatch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("protocol: parse edits: %w", err)
	}
	return &b, nil
}
