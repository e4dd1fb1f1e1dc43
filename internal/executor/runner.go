package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var jsonit = jsoniter.ConfigCompatibleWithStandardLibrary

// Names with a fixed meaning inside the execution namespace. Snippets are
// authored against these; they are part of the engine's public contract.
const (
	nameOutputDir = "OUTPUT_DIR"
	nameSendList  = "FILES_TO_SEND"
	nameImageURLs = "IMAGE_URLS"
)

// runner executes one snippet against a fresh VM. A runner is single-use:
// newRunner builds the namespace, run evaluates the code exactly once.
// Nothing is shared between runners, so back-to-back invocations never see
// each other's bindings.
type runner struct {
	vm     *goja.Runtime
	req    *Request
	out    *captureBuffer
	send   *sendList
	charts *chartModule
}

func newRunner(ctx context.Context, req *Request) *runner {
	r := &runner{
		vm:   goja.New(),
		req:  req,
		out:  &captureBuffer{},
		send: &sendList{},
	}
	r.bindPrint()
	r.bindSendList()
	r.bindAux()
	r.vm.Set(nameOutputDir, req.OutputDir)
	r.bindModules(ctx)
	return r
}

// run evaluates the snippet as a single top-level unit and assembles the
// Result. All failure modes are converted to Result fields; run never
// returns an error and never lets a goja error escape.
func (r *runner) run() *Result {
	before := snapshotDir(r.req.OutputDir)

	_, err := r.vm.RunString(r.req.Code)

	// Figures still open after the run are discarded, not saved. Leaving
	// them on the module's open list would misattribute them to a later run.
	if r.charts != nil {
		r.charts.closeAll()
	}

	if err != nil {
		return &Result{
			Success:   false,
			Stdout:    r.out.String(),
			ErrorText: sanitizeUTF8(diagnostic(err)),
			Files:     []string{},
		}
	}

	return &Result{
		Success: true,
		Stdout:  r.out.String(),
		Files:   collectProduced(r.req.OutputDir, before, r.send.entries()),
	}
}

// interrupt asks the VM to abort script execution. Effective for script
// loops; a snippet blocked inside a host call returns only when that call
// does.
func (r *runner) interrupt() {
	r.vm.Interrupt("execution timed out")
}

// diagnostic renders an evaluation error with as much trace as goja provides.
func diagnostic(err error) string {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return exc.String()
	}
	var intr *goja.InterruptedError
	if errors.As(err, &intr) {
		return "execution interrupted: " + intr.String()
	}
	return err.Error()
}

func (r *runner) bindPrint() {
	printFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = displayValue(arg)
		}
		r.out.writeLine(parts...)
		return goja.Undefined()
	}
	r.vm.Set("print", printFn)

	console := r.vm.NewObject()
	_ = console.Set("log", printFn)
	_ = console.Set("error", printFn)
	_ = r.vm.Set("console", console)
}

func (r *runner) bindSendList() {
	obj := r.vm.NewObject()
	_ = obj.Set("push", func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			r.send.push(arg.String())
		}
		return r.vm.ToValue(len(r.send.entries()))
	})
	_ = obj.Set("list", func(goja.FunctionCall) goja.Value {
		return r.vm.ToValue(r.send.entries())
	})
	_ = r.vm.Set(nameSendList, obj)
}

// bindAux places the auxiliary values into the namespace under their given
// names. IMAGE_URLS is always present, defaulting to an empty list.
func (r *runner) bindAux() {
	bound := false
	for name, value := range r.req.Aux {
		switch name {
		case nameOutputDir, nameSendList:
			continue
		}
		if name == nameImageURLs {
			bound = true
		}
		r.vm.Set(name, value)
	}
	if !bound {
		r.vm.Set(nameImageURLs, []string{})
	}
}

// bindModules attaches the capability modules, each attempted independently.
// An unavailable module is skipped with a warning; the namespace degrades
// gracefully and the snippet fails later with a plain name-resolution error
// if it relies on the missing binding.
func (r *runner) bindModules(ctx context.Context) {
	bindings := []struct {
		name string
		bind func(*runner) error
	}{
		{"http", (*runner).bindHTTP},
		{"codec", (*runner).bindCodec},
		{"hash", (*runner).bindHash},
		{"text", (*runner).bindText},
		{"clock", (*runner).bindClock},
		{"files", (*runner).bindFiles},
		{"chart", (*runner).bindChart},
	}
	for _, b := range bindings {
		if err := b.bind(r); err != nil {
			log.Ctx(ctx).Warn().Str("module", b.name).Err(err).
				Msg("capability module unavailable, binding skipped")
		}
	}
}

// displayValue renders a value the way a snippet author expects print to
// show it: compound values as JSON, scalars via their natural formatting.
func displayValue(v goja.Value) string {
	ex := v.Export()
	switch ex.(type) {
	case map[string]any, []any:
		if b, err := jsonit.Marshal(ex); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", ex)
}
