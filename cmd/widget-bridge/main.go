//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"syscall/js"

	"github.com/MCPJam/apps-sdk-everything/internal/bridge"
	"github.com/MCPJam/apps-sdk-everything/internal/bridge/jshost"
	"github.com/MCPJam/apps-sdk-everything/internal/logging"
	"go.uber.org/zap"
)

// exportName is the window property the runtime installs.
const exportName = "appsSdkBridge"

// readyEvent is dispatched on window once exportName is installed. Pages
// switch from their inline mirror to the runtime when it fires.
const readyEvent = "apps-sdk-bridge:ready"

func main() {
	logger, err := logging.NewConsole(logLevel())
	if err != nil {
		logger = zap.NewNop()
	}

	host := jshost.Bound()
	target := jshost.NewTarget()

	store := bridge.NewStore(host, bridge.WithLogger(logger.Named("store")))
	store.Mount(target)
	events := bridge.NewEventLog(bridge.DefaultEventLogCapacity)
	events.Mount(target)

	b := &runtime{host: host, store: store, events: events, logger: logger}
	js.Global().Set(exportName, b.export())
	js.Global().Call("dispatchEvent", js.Global().Get("CustomEvent").New(readyEvent))
	logger.Info("widget bridge ready", zap.Bool("hosted", host.Present()))

	select {}
}

// logLevel reads the optional data-log-level attribute of the bridge script tag.
func logLevel() string {
	doc := js.Global().Get("document")
	if doc.IsUndefined() || doc.IsNull() {
		return ""
	}
	el := doc.Call("querySelector", "script[data-log-level]")
	if el.IsNull() {
		return ""
	}
	return el.Call("getAttribute", "data-log-level").String()
}

type runtime struct {
	host   *jshost.Host
	store  *bridge.Store
	events *bridge.EventLog
	logger *zap.Logger
}

func (b *runtime) export() js.Value {
	obj := js.Global().Get("Object").New()

	obj.Set("snapshot", js.FuncOf(func(js.Value, []js.Value) any {
		return toJS(b.store.Snapshot())
	}))
	obj.Set("hosted", js.FuncOf(func(js.Value, []js.Value) any {
		return b.host.Present()
	}))
	obj.Set("subscribe", js.FuncOf(b.subscribe))

	obj.Set("events", js.FuncOf(func(js.Value, []js.Value) any {
		return toJS(b.events.Entries())
	}))
	obj.Set("pause", js.FuncOf(func(js.Value, []js.Value) any {
		b.events.Pause()
		return nil
	}))
	obj.Set("resume", js.FuncOf(func(js.Value, []js.Value) any {
		b.events.Resume()
		return nil
	}))
	obj.Set("clear", js.FuncOf(func(js.Value, []js.Value) any {
		b.events.Clear()
		return nil
	}))

	obj.Set("callTool", js.FuncOf(func(_ js.Value, args []js.Value) any {
		name := arg(args, 0).String()
		var toolArgs map[string]any
		if err := fromJS(arg(args, 1), &toolArgs); err != nil {
			return rejected(err)
		}
		return promise(func(ctx context.Context) (any, error) {
			return bridge.CallTool(ctx, b.host, name, toolArgs)
		})
	}))
	obj.Set("sendFollowUpMessage", js.FuncOf(func(_ js.Value, args []js.Value) any {
		prompt := stringField(arg(args, 0), "prompt")
		return promise(func(ctx context.Context) (any, error) {
			return nil, bridge.SendFollowUpMessage(ctx, b.host, prompt)
		})
	}))
	obj.Set("requestDisplayMode", js.FuncOf(func(_ js.Value, args []js.Value) any {
		mode := bridge.DisplayMode(stringField(arg(args, 0), "mode"))
		return promise(func(ctx context.Context) (any, error) {
			granted, err := bridge.RequestDisplayMode(ctx, b.host, mode)
			if err != nil {
				return nil, err
			}
			return map[string]any{"mode": granted}, nil
		})
	}))
	obj.Set("setWidgetState", js.FuncOf(func(_ js.Value, args []js.Value) any {
		var state map[string]any
		if err := fromJS(arg(args, 0), &state); err != nil {
			return rejected(err)
		}
		return promise(func(ctx context.Context) (any, error) {
			return nil, bridge.SetWidgetState(ctx, b.host, state)
		})
	}))
	obj.Set("requestModal", js.FuncOf(func(_ js.Value, args []js.Value) any {
		var opts bridge.ModalOptions
		if err := fromJS(arg(args, 0), &opts); err != nil {
			return rejected(err)
		}
		return promise(func(ctx context.Context) (any, error) {
			return nil, bridge.RequestModal(ctx, b.host, opts)
		})
	}))
	obj.Set("openExternal", js.FuncOf(func(_ js.Value, args []js.Value) any {
		bridge.OpenExternal(b.host, stringField(arg(args, 0), "href"))
		return nil
	}))
	obj.Set("notifyIntrinsicHeight", js.FuncOf(func(_ js.Value, args []js.Value) any {
		h := arg(args, 0)
		if h.Type() == js.TypeNumber {
			bridge.NotifyIntrinsicHeight(b.host, h.Float())
		}
		return nil
	}))
	return obj
}

// subscribe registers a JS callback for store changes and returns a JS
// function that unsubscribes it.
func (b *runtime) subscribe(_ js.Value, args []js.Value) any {
	fn := arg(args, 0)
	if fn.Type() != js.TypeFunction {
		return js.Undefined()
	}
	unsubscribe := b.store.Subscribe(func(g bridge.GlobalState) {
		fn.Invoke(toJS(g))
	})
	var stop js.Func
	stop = js.FuncOf(func(js.Value, []js.Value) any {
		unsubscribe()
		stop.Release()
		return nil
	})
	return stop
}

// promise runs fn on a goroutine and settles a JS promise with its result.
// Host methods block on their own promises, so they must not run on the JS
// callback's stack.
func promise(fn func(ctx context.Context) (any, error)) js.Value {
	var executor js.Func
	executor = js.FuncOf(func(_ js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			v, err := fn(context.Background())
			if err != nil {
				reject.Invoke(jsError(err))
				return
			}
			resolve.Invoke(toJS(v))
		}()
		return nil
	})
	p := js.Global().Get("Promise").New(executor)
	executor.Release()
	return p
}

func rejected(err error) js.Value {
	return js.Global().Get("Promise").Call("reject", jsError(err))
}

func jsError(err error) js.Value {
	e := js.Global().Get("Error").New(err.Error())
	if errors.Is(err, bridge.ErrHostUnavailable) {
		e.Set("code", "host_unavailable")
	}
	return e
}

func arg(args []js.Value, i int) js.Value {
	if i < len(args) {
		return args[i]
	}
	return js.Undefined()
}

// stringField accepts either a bare string or an object holding key.
func stringField(v js.Value, key string) string {
	switch v.Type() {
	case js.TypeString:
		return v.String()
	case js.TypeObject:
		if f := v.Get(key); f.Type() == js.TypeString {
			return f.String()
		}
	}
	return ""
}

func toJS(v any) js.Value {
	if v == nil {
		return js.Undefined()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return js.Undefined()
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

func fromJS(v js.Value, dst any) error {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	text := js.Global().Get("JSON").Call("stringify", v)
	if text.Type() != js.TypeString {
		return errors.New("value is not JSON-serializable")
	}
	return json.Unmarshal([]byte(text.String()), dst)
}
