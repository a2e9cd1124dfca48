package protocol

import (
	"errors"
	"fmt"
)

// NodeID identifies a node inside an interpreter's node store.
type NodeID uint64

// EditOp is the opcode of an edit record.
type EditOp uint8

// Edit opcodes. The numeric values are part of the wire format.
const (
	OpCreateElement       EditOp = 0x01
	OpCreateElementNS     EditOp = 0x02
	OpCreateTextNode      EditOp = 0x03
	OpCreatePlaceholder   EditOp = 0x04
	OpAppendChildren      EditOp = 0x10
	OpInsertBefore        EditOp = 0x11
	OpInsertAfter         EditOp = 0x12
	OpReplaceWith         EditOp = 0x13
	OpRemove              EditOp = 0x14
	OpSetText             EditOp = 0x20
	OpSetAttribute        EditOp = 0x21
	OpRemoveAttribute     EditOp = 0x22
	OpNewEventListener    EditOp = 0x30
	OpRemoveEventListener EditOp = 0x31
	OpLoadChild           EditOp = 0x40
	OpPushRoot            EditOp = 0x41
	OpPopRoot             EditOp = 0x42
	OpAssignID            EditOp = 0x43
	OpHydrateText         EditOp = 0x44
	OpReplacePlaceholder  EditOp = 0x45
	OpSaveTemplate        EditOp = 0x50
	OpLoadTemplate        EditOp = 0x51
)

var opNames = map[EditOp]string{
	OpCreateElement:       "CreateElement",
	OpCreateElementNS:     "CreateElementNS",
	OpCreateTextNode:      "CreateTextNode",
	OpCreatePlaceholder:   "CreatePlaceholder",
	OpAppendChildren:      "AppendChildren",
	OpInsertBefore:        "InsertBefore",
	OpInsertAfter:         "InsertAfter",
	OpReplaceWith:         "ReplaceWith",
	OpRemove:              "Remove",
	OpSetText:             "SetText",
	OpSetAttribute:        "SetAttribute",
	OpRemoveAttribute:     "RemoveAttribute",
	OpNewEventListener:    "NewEventListener",
	OpRemoveEventListener: "RemoveEventListener",
	OpLoadChild:           "LoadChild",
	OpPushRoot:            "PushRoot",
	OpPopRoot:             "PopRoot",
	OpAssignID:            "AssignID",
	OpHydrateText:         "HydrateText",
	OpReplacePlaceholder:  "ReplacePlaceholder",
	OpSaveTemplate:        "SaveTemplate",
	OpLoadTemplate:        "LoadTemplate",
}

var opByName = func() map[string]EditOp {
	m := make(map[string]EditOp, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

// String returns the opcode name.
func (op EditOp) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("EditOp(0x%02x)", uint8(op))
}

// Valid reports whether op is a known opcode.
func (op EditOp) Valid() bool {
	_, ok := opNames[op]
	return ok
}

// ParseEditOp returns the opcode with the given name.
func ParseEditOp(name string) (EditOp, bool) {
	op, ok := opByName[name]
	return op, ok
}

// Edit is a single edit record. Only the fields relevant to Op are meaningful:
//
//	CreateElement        ID, Tag
//	CreateElementNS      ID, Tag, Namespace
//	CreateTextNode       ID, Text
//	CreatePlaceholder    ID
//	AppendChildren       ID (parent), Count
//	InsertBefore/After   ID (anchor), Count
//	ReplaceWith          ID (target), Count
//	Remove               ID
//	SetText              ID, Text
//	SetAttribute         ID, Name, Value, Namespace
//	RemoveAttribute      ID, Name, Namespace
//	New/RemoveEventListener ID, Name, Bubbles
//	LoadChild            Path
//	PushRoot             ID
//	PopRoot              -
//	AssignID             Path, ID
//	HydrateText          Path, Text, ID
//	ReplacePlaceholder   Path, Count
//	SaveTemplate         Template, IDs
//	LoadTemplate         Template, Index, ID
type Edit struct {
	Op        EditOp
	ID        NodeID
	Tag       string
	Text      string
	Name      string
	Value     string
	Namespace string
	Count     uint32
	Bubbles   bool
	Path      []uint8
	Template  string
	Index     uint32
	IDs       []NodeID
}

// String returns a compact human-readable form of the edit.
func (e Edit) String() string {
	switch e.Op {
	case OpCreateElement:
		return fmt.Sprintf("CreateElement(%s, %d)", e.Tag, e.ID)
	case OpCreateElementNS:
		return fmt.Sprintf("CreateElementNS(%s, %s, %d)", e.Tag, e.Namespace, e.ID)
	case OpCreateTextNode:
		return fmt.Sprintf("CreateTextNode(%q, %d)", e.Text, e.ID)
	case OpCreatePlaceholder, OpRemove, OpPushRoot:
		return fmt.Sprintf("%s(%d)", e.Op, e.ID)
	case OpAppendChildren, OpInsertBefore, OpInsertAfter, OpReplaceWith:
		return fmt.Sprintf("%s(%d, %d)", e.Op, e.ID, e.Count)
	case OpSetText:
		return fmt.Sprintf("SetText(%d, %q)", e.ID, e.Text)
	case OpSetAttribute:
		return fmt.Sprintf("SetAttribute(%d, %s, %q, %q)", e.ID, e.Name, e.Value, e.Namespace)
	case OpRemoveAttribute:
		return fmt.Sprintf("RemoveAttribute(%d, %s, %q)", e.ID, e.Name, e.Namespace)
	case OpNewEventListener, OpRemoveEventListener:
		return fmt.Sprintf("%s(%d, %s, %t)", e.Op, e.ID, e.Name, e.Bubbles)
	case OpLoadChild:
		return fmt.Sprintf("LoadChild(%v)", e.Path)
	case OpPopRoot:
		return "PopRoot()"
	case OpAssignID:
		return fmt.Sprintf("AssignID(%v, %d)", e.Path, e.ID)
	case OpHydrateText:
		return fmt.Sprintf("HydrateText(%v, %q, %d)", e.Path, e.Text, e.ID)
	case OpReplacePlaceholder:
		return fmt.Sprintf("ReplacePlaceholder(%v, %d)", e.Path, e.Count)
	case OpSaveTemplate:
		return fmt.Sprintf("SaveTemplate(%s, %v)", e.Template, e.IDs)
	case OpLoadTemplate:
		return fmt.Sprintf("LoadTemplate(%s, %d, %d)", e.Template, e.Index, e.ID)
	}
	return e.Op.String()
}

// EditBatch is one ordered unit of edits delivered by the producer.
type EditBatch struct {
	Seq   uint64 `json:"seq"`
	Edits []Edit `json:"edits"`
}

// ErrInvalidOp is returned when decoding an unknown opcode.
var ErrInvalidOp = errors.New("protocol: invalid edit opcode")

// EncodeEdits encodes a batch to bytes.
//
// Wire format:
//
//	[Seq:uvarint][Count:uvarint][Edit...]
//
// Each edit is [Op:byte] followed by its fields in the order listed on Edit.
func EncodeEdits(b *EditBatch) []byte {
	e := NewEncoder()
	EncodeEditsTo(e, b)
	return e.Bytes()
}

// EncodeEditsTo encodes a batch using the provided encoder.
func EncodeEditsTo(e *Encoder, b *EditBatch) {
	e.WriteUvarint(b.Seq)
	e.WriteUvarint(uint64(len(b.Edits)))
	for i := range b.Edits {
		encodeEdit(e, &b.Edits[i])
	}
}

func encodeEdit(e *Encoder, ed *Edit) {
	e.WriteByte(byte(ed.Op))
	switch ed.Op {
	case OpCreateElement:
		e.WriteNodeID(ed.ID)
		e.WriteString(ed.Tag)
	case OpCreateElementNS:
		e.WriteNodeID(ed.ID)
		e.WriteString(ed.Tag)
		e.WriteString(ed.Namespace)
	case OpCreateTextNode, OpSetText:
		e.WriteNodeID(ed.ID)
		e.WriteString(ed.Text)
	case OpCreatePlaceholder, OpRemove, OpPushRoot:
		e.WriteNodeID(ed.ID)
	case OpAppendChildren, OpInsertBefore, OpInsertAfter, OpReplaceWith:
		e.WriteNodeID(ed.ID)
		e.WriteUvarint(uint64(ed.Count))
	case OpSetAttribute:
		e.WriteNodeID(ed.ID)
		e.WriteString(ed.Name)
		e.WriteString(ed.Value)
		e.WriteOptString(ed.Namespace)
	case OpRemoveAttribute:
		e.WriteNodeID(ed.ID)
		e.WriteString(ed.Name)
		e.WriteOptString(ed.Namespace)
	case OpNewEventListener, OpRemoveEventListener:
		e.WriteNodeID(ed.ID)
		e.WriteString(ed.Name)
		e.WriteBool(ed.Bubbles)
	case OpLoadChild:
		e.WriteLenBytes(ed.Path)
	case OpPopRoot:
	case OpAssignID:
		e.WriteLenBytes(ed.Path)
		e.WriteNodeID(ed.ID)
	case OpHydrateText:
		e.WriteLenBytes(ed.Path)
		e.WriteString(ed.Text)
		e.WriteNodeID(ed.ID)
	case OpReplacePlaceholder:
		e.WriteLenBytes(ed.Path)
		e.WriteUvarint(uint64(ed.Count))
	case OpSaveTemplate:
		e.WriteString(ed.Template)
		e.WriteUvarint(uint64(len(ed.IDs)))
		for _, id := range ed.IDs {
			e.WriteNodeID(id)
		}
	case OpLoadTemplate:
		e.WriteString(ed.Template)
		e.WriteUvarint(uint64(ed.Index))
		e.WriteNodeID(ed.ID)
	}
}

// DecodeEdits decodes a batch from bytes.
func DecodeEdits(data []byte) (*EditBatch, error) {
	return DecodeEditsFrom(NewDecoder(data))
}

// DecodeEditsFrom decodes a batch from a decoder.
func DecodeEditsFrom(d *Decoder) (*EditBatch, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	b := &EditBatch{Seq: seq, Edits: make([]Edit, count)}
	for i := 0; i < count; i++ {
		if err := decodeEdit(d, &b.Edits[i]); err != nil {
			return nil, fmt.Errorf("protocol: edit %d: %w", i, err)
		}
	}
	return b, nil
}

func decodeEdit(d *Decoder, ed *Edit) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	ed.Op = EditOp(op)

	switch ed.Op {
	case OpCreateElement:
		if ed.ID, err = d.ReadNodeID(); err != nil {
			return err
		}
		ed.Tag, err = d.ReadString()
	case OpCreateElementNS:
		if ed.ID, err = d.ReadNodeID(); err != nil {
			return err
		}
		if ed.Tag, err = d.ReadString(); err != nil {
			return err
		}
		ed.Namespace, err = d.ReadString()
	case OpCreateTextNode, OpSetText:
		if ed.ID, err = d.ReadNodeID(); err != nil {
			return err
		}
		ed.Text, err = d.ReadString()
	case OpCreatePlaceholder, OpRemove, OpPushRoot:
		ed.ID, err = d.ReadNodeID()
	case OpAppendChildren, OpInsertBefore, OpInsertAfter, OpReplaceWith:
		if ed.ID, err = d.ReadNodeID(); err != nil {
			return err
		}
		ed.Count, err = readCount(d)
	case OpSetAttribute:
		if ed.ID, err = d.ReadNodeID(); err != nil {
			return err
		}
		if ed.Name, err = d.ReadString(); err != nil {
			return err
		}
		if ed.Value, err = d.ReadString(); err != nil {
			return err
		}
		ed.Namespace, err = d.ReadOptString()
	case OpRemoveAttribute:
		if ed.ID, err = d.ReadNodeID(); err != nil {
			return err
		}
		if ed.Name, err = d.ReadString(); err != nil {
			return err
		}
		ed.Namespace, err = d.ReadOptString()
	case OpNewEventListener, OpRemoveEventListener:
		if ed.ID, err = d.ReadNodeID(); err != nil {
			return err
		}
		if ed.Name, err = d.ReadString(); err != nil {
			return err
		}
		ed.Bubbles, err = d.ReadBool()
	case OpLoadChild:
		ed.Path, err = readPath(d)
	case OpPopRoot:
	case OpAssignID:
		if ed.Path, err = readPath(d); err != nil {
			return err
		}
		ed.ID, err = d.ReadNodeID()
	case OpHydrateText:
		if ed.Path, err = readPath(d); err != nil {
			return err
		}
		if ed.Text, err = d.ReadString(); err != nil {
			return err
		}
		ed.ID, err = d.ReadNodeID()
	case OpReplacePlaceholder:
		if ed.Path, err = readPath(d); err != nil {
			return err
		}
		ed.Count, err = readCount(d)
	case OpSaveTemplate:
		if ed.Template, err = d.ReadString(); err != nil {
			return err
		}
		var n int
		if n, err = d.ReadCollectionCount(); err != nil {
			return err
		}
		if n > 0 {
			ed.IDs = make([]NodeID, n)
		}
		for i := range ed.IDs {
			if ed.IDs[i], err = d.ReadNodeID(); err != nil {
				return err
			}
		}
	case OpLoadTemplate:
		if ed.Template, err = d.ReadString(); err != nil {
			return err
		}
		if ed.Index, err = readCount(d); err != nil {
			return err
		}
		ed.ID, err = d.ReadNodeID()
	default:
		return fmt.Errorf("%w: 0x%02x", ErrInvalidOp, op)
	}
	return err
}

func readCount(d *Decoder) (uint32, error) {
	v, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if v > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	return uint32(v), nil
}

// readPath reads a length-prefixed path, returning nil for an empty path so
// decoded edits compare equal to their source.
func readPath(d *Decoder) ([]uint8, error) {
	p, err := d.ReadLenBytes()
	if err != nil || len(p) == 0 {
		return nil, err
	}
	return p, nil
}
