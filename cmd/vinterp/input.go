package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/vinterp/internal/errors"
	"github.com/vango-dev/vinterp/pkg/protocol"
)

// Input formats accepted by replay and inspect.
const (
	formatAuto   = "auto"
	formatJSON   = "json"
	formatBinary = "binary"
	formatFrame  = "frame"
)

// input is one decoded file. Exactly one of the payload fields is set.
type input struct {
	path    string
	batch   *protocol.EditBatch
	hydrate *protocol.HydrateRequest
	message *protocol.Message
	failure *protocol.ErrorMessage
}

// detectFormat picks a format from the file extension, then from the
// leading bytes.
func detectFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON
	case ".frame":
		return formatFrame
	case ".bin", ".edits":
		return formatBinary
	}
	if len(data) > 0 && (data[0] == '[' || data[0] == '{') {
		return formatJSON
	}
	if len(data) >= protocol.FrameHeaderSize {
		if f, err := protocol.DecodeFrame(data); err == nil && len(f.Payload)+protocol.FrameHeaderSize == len(data) {
			return formatFrame
		}
	}
	return formatBinary
}

func readInput(path, format string) (*input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeInputUnreadable).WithDetail(path).Wrap(err)
	}
	if format == "" || format == formatAuto {
		format = detectFormat(path, data)
	}

	in := &input{path: path}
	switch format {
	case formatJSON:
		in.batch, err = protocol.ParseEditsJSON(data)
	case formatBinary:
		in.batch, err = protocol.DecodeEdits(data)
	case formatFrame:
		err = in.decodeFrame(data)
	default:
		return nil, errors.New(errors.CodeUsage).
			WithDetail("Unknown format " + format).
			WithSuggestion("Use one of auto, json, binary or frame")
	}
	if err != nil {
		return nil, inFile(errors.FromError(err, errors.CodeMalformedBatch), path)
	}
	return in, nil
}

// inFile prefixes the error detail with the file it came from.
func inFile(e *errors.Error, path string) *errors.Error {
	if e.Detail == "" {
		return e.WithDetail(path)
	}
	return e.WithDetail(path + ": " + e.Detail)
}

func (in *input) decodeFrame(data []byte) error {
	f, err := protocol.DecodeFrame(data)
	if err != nil {
		return err
	}
	switch f.Type {
	case protocol.FrameEdits:
		if f.Flags.Has(protocol.FlagText) {
			in.batch, err = protocol.ParseEditsJSON(f.Payload)
		} else {
			in.batch, err = protocol.DecodeEdits(f.Payload)
		}
	case protocol.FrameHydrate:
		in.hydrate, err = protocol.DecodeHydrate(f.Payload)
	case protocol.FrameMessage:
		var m protocol.Message
		if m, err = protocol.DecodeMessage(f.Payload); err == nil {
			in.message = &m
		}
	case protocol.FrameError:
		in.failure, err = protocol.DecodeErrorMessage(f.Payload)
	default:
		err = protocol.ErrInvalidFrameType
	}
	return err
}
