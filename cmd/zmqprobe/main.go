package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/semifor/zmq-ffi/backend"
	"github.com/semifor/zmq-ffi/consts"
	"github.com/semifor/zmq-ffi/ffi"
	"github.com/semifor/zmq-ffi/memengine"
)

func main() {
	var (
		soname   = flag.String("soname", "", "Engine library name or path (default: probe well-known names)")
		jsonOut  = flag.Bool("json", false, "Emit the report as JSON")
		mem      = flag.Bool("mem", false, "Probe the in-memory engine instead of an installed library")
		backends = flag.Bool("backends", false, "List every known backend's capabilities and exit")
	)
	flag.Parse()

	if err := run(*soname, *jsonOut, *mem, *backends); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type optionEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type capabilities struct {
	Backend     string        `json:"backend"`
	Revision    string        `json:"revision"`
	Operations  []string      `json:"operations"`
	SocketTypes []string      `json:"socket_types"`
	Options     []optionEntry `json:"options"`
}

type report struct {
	Version string `json:"version"`
	Source  string `json:"source"`
	capabilities
}

func run(soname string, jsonOut, mem, backends bool) error {
	if backends {
		caps := make([]capabilities, 0, len(backend.All()))
		for _, desc := range backend.All() {
			caps = append(caps, describe(desc))
		}
		if jsonOut {
			return emit(caps)
		}
		for _, c := range caps {
			fmt.Printf("Backend: %s (%s)\n", c.Backend, c.Revision)
			printCapabilities(c)
			fmt.Println()
		}
		return nil
	}

	var (
		major, minor, patch int
		source              string
	)
	if mem {
		eng := memengine.New()
		major, minor, patch = eng.Version()
		_ = eng.Close()
		source = "memengine"
	} else {
		var err error
		major, minor, patch, err = ffi.Installed(soname)
		if err != nil {
			return err
		}
		source = "installed library"
	}

	desc, err := backend.Select(major, minor)
	if err != nil {
		return err
	}

	rep := report{
		Version:      fmt.Sprintf("%d.%d.%d", major, minor, patch),
		Source:       source,
		capabilities: describe(desc),
	}
	if jsonOut {
		return emit(rep)
	}

	fmt.Printf("Engine: %s (%s)\n", rep.Version, rep.Source)
	fmt.Printf("Backend: %s (%s)\n", rep.Backend, rep.Revision)
	printCapabilities(rep.capabilities)
	return nil
}

func describe(desc *backend.Descriptor) capabilities {
	c := capabilities{
		Backend:  desc.Name,
		Revision: desc.Revision,
	}
	for _, op := range desc.Ops() {
		c.Operations = append(c.Operations, string(op))
	}
	for t := consts.Pair; t <= consts.Stream; t++ {
		if desc.ValidSocketType(t) {
			c.SocketTypes = append(c.SocketTypes, t.String())
		}
	}
	for _, id := range desc.Options() {
		typ, _ := desc.OptionType(id)
		name := consts.OptionName(id)
		if name == "" {
			name = fmt.Sprintf("option-%d", id)
		}
		c.Options = append(c.Options, optionEntry{ID: id, Name: name, Type: typ.String()})
	}
	return c
}

func printCapabilities(c capabilities) {
	fmt.Printf("\nOperations:\n  %s\n", strings.Join(c.Operations, ", "))
	fmt.Printf("\nSocket types:\n  %s\n", strings.Join(c.SocketTypes, ", "))
	fmt.Printf("\nOptions (%d):\n", len(c.Options))
	for _, o := range c.Options {
		fmt.Printf("  %-4d %-20s %s\n", o.ID, o.Name, o.Type)
	}
}

func emit(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
