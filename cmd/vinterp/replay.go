package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vinterp/internal/config"
	"github.com/vango-dev/vinterp/internal/errors"
	"github.com/vango-dev/vinterp/pkg/interp"
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/surface"
	"github.com/vango-dev/vinterp/pkg/surface/htmldom"
)

type replayOptions struct {
	format   string
	rootID   uint64
	sanitize string
	fire     []string
	messages bool
	stats    bool
}

func replayCmd() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay <file>...",
		Short: "Apply recorded batches and print the resulting markup",
		Long: `Apply edit batches to an empty document in file order and print the
markup under the root.

Files may be JSON batches, binary batches or frames. Hydrate frames bind
their markup before later batches apply. The first violation stops the
replay and is reported with the records around it.

Examples:
  vinterp replay session/*.json
  vinterp replay --fire 3:click --messages mount.bin
  vinterp replay --format=frame capture.frame`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatAuto, "Input format: auto, json, binary or frame")
	cmd.Flags().Uint64Var(&opts.rootID, "root-id", 0, "Id bound to the document root")
	cmd.Flags().StringVar(&opts.sanitize, "sanitize", "", "dangerous_inner_html policy: strict or ugc")
	cmd.Flags().StringSliceVar(&opts.fire, "fire", nil, "Fire id:event after replay (repeatable)")
	cmd.Flags().BoolVarP(&opts.messages, "messages", "m", false, "Print outbound messages as JSON lines")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print interpreter counters after the markup")

	return cmd
}

// parseFire parses "id:event". A "!" suffix on the event fires it without
// bubbling.
func parseFire(s string) (protocol.NodeID, *surface.Event, error) {
	idText, name, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return 0, nil, fmt.Errorf("want id:event, got %q", s)
	}
	id, err := strconv.ParseUint(idText, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("bad node id %q", idText)
	}
	bubbles := true
	if strings.HasSuffix(name, "!") {
		name = strings.TrimSuffix(name, "!")
		bubbles = false
	}
	return protocol.NodeID(id), &surface.Event{Name: name, Bubbles: bubbles}, nil
}

func runReplay(stdout, stderr io.Writer, files []string, opts replayOptions) error {
	cfg := config.New()
	cfg.Interp.RootID = opts.rootID
	cfg.Interp.Sanitize = opts.sanitize
	if err := cfg.Validate(); err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	sink := interp.SinkFunc(func(msg protocol.Message) {
		if opts.messages {
			_ = enc.Encode(msg)
		}
	})
	doc := htmldom.New()
	iopts := []interp.Option{
		interp.WithRootID(protocol.NodeID(cfg.Interp.RootID)),
		interp.WithSink(sink),
		interp.WithLogger(cfg.NewLogger(stderr)),
	}
	if policy := cfg.SanitizerPolicy(); policy != nil {
		iopts = append(iopts, interp.WithSanitizer(policy))
	}
	in := interp.New(doc, iopts...)

	for _, path := range files {
		src, err := readInput(path, opts.format)
		if err != nil {
			return err
		}
		if err := replayInput(stderr, doc, in, src); err != nil {
			return err
		}
	}

	for _, arg := range opts.fire {
		id, ev, err := parseFire(arg)
		if err != nil {
			return errors.New(errors.CodeUsage).WithDetail(err.Error())
		}
		if _, err := in.Fire(id, ev); err != nil {
			return errors.FromError(err, errors.CodeUnknownNode).WithDetail("--fire " + arg)
		}
	}

	fmt.Fprintln(stdout, doc.HTML())
	if opts.stats {
		fmt.Fprintf(stdout, "nodes=%d stack=%d delegated=%s dropped=%d\n",
			in.Store().Len(), in.StackDepth(), strings.Join(in.DelegatedEvents(), ","), in.Dropped())
	}
	return nil
}

func replayInput(stderr io.Writer, doc *htmldom.Document, in *interp.Interpreter, src *input) error {
	switch {
	case src.batch != nil:
		if err := in.Apply(src.batch); err != nil {
			var v *interp.ViolationError
			if stderrors.As(err, &v) {
				return inFile(errors.FromViolation(v).WithEdits(src.batch.Edits, 2), src.path)
			}
			return inFile(errors.FromError(err, errors.CodeViolation), src.path)
		}

	case src.hydrate != nil:
		root := doc.Root()
		if err := doc.SetInnerHTML(root, src.hydrate.Markup); err != nil {
			return inFile(errors.FromError(err, errors.CodeHydration), src.path)
		}
		report, err := in.Hydrate(src.hydrate.IDs, root)
		if err != nil {
			return inFile(errors.FromError(err, errors.CodeHydration), src.path)
		}
		for _, m := range report.Mismatches {
			fmt.Fprintf(stderr, "warning: %s\n", errors.FromMismatch(m).FormatCompact())
		}

	case src.failure != nil:
		fmt.Fprintf(stderr, "skipping %s: error frame (%s)\n", src.path, src.failure.Error())

	case src.message != nil:
		fmt.Fprintf(stderr, "skipping %s: %s message frame\n", src.path, src.message.Method)
	}
	return nil
}
