package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vinterp/internal/errors"
	"github.com/vango-dev/vinterp/pkg/protocol"
)

type inspectOptions struct {
	format string
	text   bool
	encode string
	output string
}

func inspectCmd() *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode a batch or frame",
		Long: `Decode a batch or frame and print it as JSON.

With --encode the input is re-encoded instead: "binary" writes a binary
batch and "frame" wraps it in an edits frame.

Examples:
  vinterp inspect mount.bin
  vinterp inspect --text capture.frame
  vinterp inspect --encode=frame -o mount.frame mount.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatAuto, "Input format: auto, json, binary or frame")
	cmd.Flags().BoolVarP(&opts.text, "text", "t", false, "Print edits one per line instead of JSON")
	cmd.Flags().StringVarP(&opts.encode, "encode", "e", "", "Re-encode as binary or frame")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

// errorJSON is the printed form of an error frame.
type errorJSON struct {
	Code    string `json:"code"`
	Seq     uint64 `json:"seq"`
	Index   int    `json:"index"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

func runInspect(stdout io.Writer, path string, opts inspectOptions) error {
	src, err := readInput(path, opts.format)
	if err != nil {
		return err
	}

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return errors.New(errors.CodeInputUnreadable).WithDetail(opts.output).Wrap(err)
		}
		defer f.Close()
		out = f
	}

	if opts.encode != "" {
		return encodeInput(out, src, opts.encode)
	}

	if opts.text && src.batch != nil {
		fmt.Fprintf(out, "batch %d (%d edits)\n", src.batch.Seq, len(src.batch.Edits))
		for i, e := range src.batch.Edits {
			fmt.Fprintf(out, "%4d  %s\n", i, e)
		}
		return nil
	}

	var v any
	switch {
	case src.batch != nil:
		v = src.batch
	case src.hydrate != nil:
		v = src.hydrate
	case src.message != nil:
		v = src.message
	case src.failure != nil:
		v = errorJSON{
			Code:    src.failure.Code.String(),
			Seq:     src.failure.Seq,
			Index:   src.failure.Index,
			Message: src.failure.Message,
			Fatal:   src.failure.Fatal,
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeInput(w io.Writer, src *input, format string) error {
	var data []byte
	switch {
	case src.batch != nil && format == formatBinary:
		data = protocol.EncodeEdits(src.batch)
	case src.batch != nil && format == formatFrame:
		data = protocol.NewFrame(protocol.FrameEdits, protocol.EncodeEdits(src.batch)).Encode()
	case src.hydrate != nil && format == formatFrame:
		data = protocol.NewFrame(protocol.FrameHydrate, protocol.EncodeHydrate(src.hydrate)).Encode()
	default:
		return errors.New(errors.CodeUsage).
			WithDetail(fmt.Sprintf("Cannot encode %s as %q", src.path, format)).
			WithSuggestion("Batches encode as binary or frame; hydration requests as frame")
	}
	_, err := w.Write(data)
	return err
}
