// Command widget-bridge is the WebAssembly runtime loaded by widget pages.
// It mirrors window.openai into a Go store, keeps a log of set-globals events
// and exposes both, plus promise-returning method wrappers, as
// window.appsSdkBridge.
//
// Build with:
//
//	GOOS=js GOARCH=wasm go build -o widget-bridge.wasm ./cmd/widget-bridge
package main
