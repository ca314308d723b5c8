// Command abiprobe inspects unmanaged layouts and Wire messages.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/invopop/jsonschema"
	"github.com/kr/pretty"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/callback"
	"github.com/wippyai/interop/engine"
	"github.com/wippyai/interop/native"
	"github.com/wippyai/interop/nativetest"
	"github.com/wippyai/interop/transcoder"
	"github.com/wippyai/interop/wire"
)

var globalArgs struct {
	Config  string `flag:"config,Path to a JSON native heap config"`
	Domain  string `flag:"domain,Native domain to use: native (default) or wasm"`
	Verbose bool   `flag:"verbose,Log allocator and ownership events to stderr"`
}

func main() {
	root := &command.C{
		Name:     "abiprobe",
		Usage:    "command args...",
		Help:     "Inspect unmanaged layouts and Wire messages.",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Init:     setupLogging,
		Commands: []*command.C{
			{
				Name:  "layout",
				Usage: "layout [type]",
				Help: `Show unmanaged layouts.

With no argument, lists every known type with its size and alignment.
With a type name, prints member offsets and the type's definition.`,
				Run: runLayout,
			},
			{
				Name:  "wire",
				Usage: "wire [text] [ints...]",
				Help: `Encode a Summary message and send it across the boundary.

The message is written to a native-owned buffer, summarized by the
native fixture library and the reply is decoded and printed.`,
				Run: runWire,
			},
			{
				Name:  "schema",
				Usage: "schema",
				Help:  "Print the JSON schema of the native heap config.",
				Run:   command.Adapt(runSchema),
			},
			{
				Name:  "browse",
				Usage: "browse",
				Help:  "Browse known types interactively.",
				Run:   command.Adapt(runBrowse),
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := root.NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

func setupLogging(env *command.Env) error {
	if !globalArgs.Verbose {
		return nil
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	native.SetLogger(log)
	engine.SetLogger(log)
	callback.SetLogger(log)
	wire.SetLogger(log)
	nativetest.SetLogger(log)
	return nil
}

// openDomain creates the domain selected by --domain. The returned func
// releases it.
func openDomain(ctx context.Context) (interop.Domain, func(), error) {
	switch globalArgs.Domain {
	case "", "native":
		cfg := native.DefaultConfig()
		if globalArgs.Config != "" {
			var err error
			if cfg, err = native.LoadConfig(globalArgs.Config); err != nil {
				return nil, nil, err
			}
		}
		h, err := native.NewHeap(cfg)
		if err != nil {
			return nil, nil, err
		}
		return h, func() { _ = h.Close() }, nil
	case "wasm":
		inst, err := engine.New(ctx, engine.DefaultConfig())
		if err != nil {
			return nil, nil, err
		}
		return inst, func() { _ = inst.Close(ctx) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown domain %q (want native or wasm)", globalArgs.Domain)
	}
}

func runLayout(env *command.Env) error {
	dom, done, err := openDomain(env.Context())
	if err != nil {
		return err
	}
	defer done()

	descs := catalog(dom)
	if len(env.Args) == 0 {
		for _, d := range descs {
			l := d.Layout()
			fmt.Printf("%-24s %-8s size=%-3d align=%d\n", d.Name(), d.Kind(), l.Size, l.Align)
		}
		return nil
	}
	name := strings.Join(env.Args, " ")
	d, ok := findDescriptor(descs, name)
	if !ok {
		return fmt.Errorf("unknown type %q", name)
	}
	fmt.Print(transcoder.Describe(d))
	fmt.Println()
	fmt.Println(transcoder.Definition(d))
	return nil
}

func runWire(env *command.Env) error {
	s := nativetest.Summary{Text: "hello world", Values: []uint32{1, 2, 3}}
	if len(env.Args) > 0 {
		s.Text = env.Args[0]
		s.Values = nil
		for _, arg := range env.Args[1:] {
			v, err := strconv.ParseUint(arg, 10, 32)
			if err != nil {
				return fmt.Errorf("value %q: %w", arg, err)
			}
			s.Values = append(s.Values, uint32(v))
		}
	}

	bs, err := wire.Serialize[nativetest.Summary](nativetest.SummaryCodec, s)
	if err != nil {
		return err
	}
	fmt.Printf("Summary: %d bytes (predicted %d)\n", len(bs), nativetest.SummaryCodec.Size(s))
	fmt.Print(hex.Dump(bs))

	dom, done, err := openDomain(env.Context())
	if err != nil {
		return err
	}
	defer done()
	tbl := callback.NewTable(dom)
	defer tbl.Close()
	lib, err := nativetest.New(dom, tbl)
	if err != nil {
		return err
	}
	defer lib.Close()

	msg, err := wire.New[nativetest.Summary](dom, nativetest.SummaryCodec, s)
	if err != nil {
		return err
	}
	fmt.Printf("\nsent    %v\n", msg.Buffer())
	out, err := lib.SummarizeWire(msg.Buffer())
	if err != nil {
		return err
	}
	fmt.Printf("reply   %v\n", out)

	reply, err := wire.Receive[nativetest.Report](dom, nativetest.ReportCodec, out)
	if err != nil {
		return err
	}
	defer reply.Release()
	r, err := reply.Unwire()
	if err != nil {
		return err
	}
	fmt.Printf("\n%# v\n", pretty.Formatter(r))
	return nil
}

func runSchema(env *command.Env) error {
	r := jsonschema.Reflector{ExpandedStruct: true}
	schema := r.Reflect(native.DefaultConfig())
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runBrowse(env *command.Env) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("browse needs a terminal; use 'layout' instead")
	}
	dom, done, err := openDomain(env.Context())
	if err != nil {
		return err
	}
	defer done()
	return runInteractive(catalog(dom))
}
