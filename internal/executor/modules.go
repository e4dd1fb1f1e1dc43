package executor

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
)

// Capability modules bound into the execution namespace. Each module is a
// plain object of host functions; failures inside a call are thrown as JS
// errors so the snippet sees them exactly like any other runtime error.

const httpRequestTimeout = 30 * time.Second

func (r *runner) bindHTTP() error {
	client := &http.Client{Timeout: httpRequestTimeout}
	obj := r.vm.NewObject()

	respond := func(resp *http.Response) goja.Value {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.vm.ToValue(map[string]any{
			"status": resp.StatusCode,
			"body":   sanitizeUTF8(string(body)),
		})
	}

	_ = obj.Set("get", func(call goja.FunctionCall) goja.Value {
		url := call.Argument(0).String()
		resp, err := client.Get(url)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return respond(resp)
	})

	_ = obj.Set("post", func(call goja.FunctionCall) goja.Value {
		url := call.Argument(0).String()
		body := call.Argument(1).String()
		contentType := "application/json"
		if len(call.Arguments) > 2 {
			contentType = call.Argument(2).String()
		}
		resp, err := client.Post(url, contentType, strings.NewReader(body))
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return respond(resp)
	})

	return r.vm.Set("http", obj)
}

func (r *runner) bindCodec() error {
	obj := r.vm.NewObject()

	_ = obj.Set("jsonParse", func(call goja.FunctionCall) goja.Value {
		var out any
		if err := jsonit.UnmarshalFromString(call.Argument(0).String(), &out); err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.vm.ToValue(out)
	})

	_ = obj.Set("jsonStringify", func(call goja.FunctionCall) goja.Value {
		b, err := jsonit.MarshalIndent(call.Argument(0).Export(), "", "  ")
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.vm.ToValue(string(b))
	})

	_ = obj.Set("base64Encode", func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(base64.StdEncoding.EncodeToString([]byte(call.Argument(0).String())))
	})

	_ = obj.Set("base64Decode", func(call goja.FunctionCall) goja.Value {
		b, err := base64.StdEncoding.DecodeString(call.Argument(0).String())
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.vm.ToValue(string(b))
	})

	_ = obj.Set("csvFormat", func(call goja.FunctionCall) goja.Value {
		rows, ok := call.Argument(0).Export().([]any)
		if !ok {
			panic(r.vm.NewGoError(fmt.Errorf("csvFormat expects an array of rows")))
		}
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		for _, row := range rows {
			cells, ok := row.([]any)
			if !ok {
				panic(r.vm.NewGoError(fmt.Errorf("csvFormat expects each row to be an array")))
			}
			record := make([]string, len(cells))
			for i, c := range cells {
				record[i] = fmt.Sprintf("%v", c)
			}
			if err := w.Write(record); err != nil {
				panic(r.vm.NewGoError(err))
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.vm.ToValue(buf.String())
	})

	return r.vm.Set("codec", obj)
}

func (r *runner) bindHash() error {
	obj := r.vm.NewObject()

	_ = obj.Set("sha256", func(call goja.FunctionCall) goja.Value {
		sum := sha256.Sum256([]byte(call.Argument(0).String()))
		return r.vm.ToValue(hex.EncodeToString(sum[:]))
	})
	_ = obj.Set("sha1", func(call goja.FunctionCall) goja.Value {
		sum := sha1.Sum([]byte(call.Argument(0).String()))
		return r.vm.ToValue(hex.EncodeToString(sum[:]))
	})
	_ = obj.Set("md5", func(call goja.FunctionCall) goja.Value {
		sum := md5.Sum([]byte(call.Argument(0).String()))
		return r.vm.ToValue(hex.EncodeToString(sum[:]))
	})
	_ = obj.Set("uuid", func(goja.FunctionCall) goja.Value {
		return r.vm.ToValue(uuid.NewString())
	})

	return r.vm.Set("hash", obj)
}

func (r *runner) bindText() error {
	obj := r.vm.NewObject()

	compile := func(pattern string) *regexp.Regexp {
		re, err := regexp.Compile(pattern)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return re
	}

	_ = obj.Set("match", func(call goja.FunctionCall) goja.Value {
		re := compile(call.Argument(0).String())
		return r.vm.ToValue(re.MatchString(call.Argument(1).String()))
	})
	_ = obj.Set("findAll", func(call goja.FunctionCall) goja.Value {
		re := compile(call.Argument(0).String())
		found := re.FindAllString(call.Argument(1).String(), -1)
		if found == nil {
			found = []string{}
		}
		return r.vm.ToValue(found)
	})
	_ = obj.Set("replace", func(call goja.FunctionCall) goja.Value {
		re := compile(call.Argument(0).String())
		return r.vm.ToValue(re.ReplaceAllString(call.Argument(1).String(), call.Argument(2).String()))
	})

	return r.vm.Set("text", obj)
}

func (r *runner) bindClock() error {
	obj := r.vm.NewObject()

	_ = obj.Set("now", func(goja.FunctionCall) goja.Value {
		return r.vm.ToValue(time.Now().Format(time.RFC3339))
	})
	_ = obj.Set("unix", func(goja.FunctionCall) goja.Value {
		return r.vm.ToValue(time.Now().Unix())
	})
	_ = obj.Set("stamp", func(goja.FunctionCall) goja.Value {
		return r.vm.ToValue(time.Now().Format(chartTimestampLayout))
	})

	return r.vm.Set("clock", obj)
}

func (r *runner) bindFiles() error {
	obj := r.vm.NewObject()

	_ = obj.Set("read", func(call goja.FunctionCall) goja.Value {
		b, err := os.ReadFile(call.Argument(0).String())
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		return r.vm.ToValue(sanitizeUTF8(string(b)))
	})
	_ = obj.Set("write", func(call goja.FunctionCall) goja.Value {
		if err := os.WriteFile(call.Argument(0).String(), []byte(call.Argument(1).String()), 0644); err != nil {
			panic(r.vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	_ = obj.Set("list", func(call goja.FunctionCall) goja.Value {
		entries, err := os.ReadDir(call.Argument(0).String())
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return r.vm.ToValue(names)
	})
	_ = obj.Set("exists", func(call goja.FunctionCall) goja.Value {
		_, err := os.Stat(call.Argument(0).String())
		return r.vm.ToValue(err == nil)
	})
	_ = obj.Set("remove", func(call goja.FunctionCall) goja.Value {
		if err := os.Remove(call.Argument(0).String()); err != nil {
			panic(r.vm.NewGoError(err))
		}
		return goja.Undefined()
	})

	return r.vm.Set("files", obj)
}
