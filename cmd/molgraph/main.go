package main

import (
	"flag"
	"strconv"

	"github.com/plan-systems/klog"
)

var (
	verbosity = flag.Int("verbosity", 1, "log verbosity (passed through to klog)")
	noColor   = flag.Bool("no-color", false, "disable colorized log output")
)

// molgraph [flags] [script.py]
//
// With a script argument, runs it against the embedded interpreter; without
// one, drops into a REPL with the _pymolgraph module preloaded.
func main() {
	flag.Parse()

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", strconv.Itoa(*verbosity))
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 14,
		UseColor:          !*noColor,
	})

	go_gpython(flag.Arg(0))

	klog.Flush()
}
