// Command kerf evaluates solid-modelling scripts. It runs either as a
// one-shot CLI (eval) or as an HTTP service (serve).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/kerf/pkg/config"
	"github.com/chazu/kerf/pkg/store"
)

// errEvalFailed reports that the script had errors, already printed.
var errEvalFailed = errors.New("evaluation failed")

const usage = `usage:
  kerf serve [-config path]
  kerf eval [-config path] [-o out.stl] script.kerf
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "eval":
		err = runEval(os.Args[2:], os.Stdout)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		if !errors.Is(err, errEvalFailed) {
			log.Printf("kerf %s: %v", os.Args[1], err)
		}
		os.Exit(1)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := newServer(NewAppWithConfig(cfg, st), cfg)
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Printf("[SERVE] shutdown: %v", err)
		}
	}()

	log.Printf("[SERVE] listening on %s (db %s)", cfg.Server.Addr, cfg.Store.Path)
	return srv.Listen(cfg.Server.Addr)
}

// runEval evaluates one script file, prints a per-part summary to out and
// optionally writes the parts to an STL file.
func runEval(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "path to a YAML config file")
	stlPath := fs.String("o", "", "write all parts to this STL file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("eval requires exactly one script path")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	a := NewAppWithConfig(cfg, nil)
	result, err := a.Evaluate(context.Background(), string(source))
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(out, "%s:%d: warning: %s\n", fs.Arg(0), w.Line, w.Message)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(out, "%s:%d: error: %s\n", fs.Arg(0), e.Line, e.Message)
		}
		return errEvalFailed
	}

	for _, m := range result.Meshes {
		fmt.Fprintf(out, "%-20s %8d triangles  volume %.4f\n", m.PartName, m.Triangles, m.Volume)
	}
	parts, tris, vol := result.Totals()
	fmt.Fprintf(out, "%d parts, %d triangles, volume %.4f\n", parts, tris, vol)

	if *stlPath != "" {
		if err := a.WriteSTL(result, *stlPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", *stlPath)
	}
	return nil
}
