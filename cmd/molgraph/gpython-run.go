package main

import (
	"fmt"
	"log"
	"time"

	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"

	_ "github.com/go-python/gpython/stdlib"
	_ "github.com/mol-structures/molgraph/pymolgraph"
)

func go_gpython(pathname string) {
	ctx := py.NewContext(py.DefaultContextOpts())

	var err error
	if len(pathname) == 0 {
		replCtx := repl.New(ctx)
		cli.RunREPL(replCtx)
	} else {
		startTime := time.Now()
		fmt.Printf("<<<>>>   executing '%s'   <<<>>>\n", pathname)

		_, err = py.RunFile(ctx, pathname, py.CompileOpts{}, nil)

		if err == nil {
			elapsed := time.Since(startTime)
			fmt.Printf("<<<>>>   execution complete: %v   <<<>>>\n", elapsed)
		}
	}

	ctx.Close()
	<-ctx.Done()

	if err != nil {
		py.TracebackDump(err)
		log.Fatal(err)
	}
}
