package main

import (
	"os"

	webview "github.com/webview/webview_go"

	"github.com/kartoza/plasma-dashboard/internal/cli"
)

var version = "dev"

func main() {
	cli.OpenWindow = desktopWindow

	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}

// desktopWindow opens an embedded WebView on url. Run blocks until the window closes.
func desktopWindow(url string, done <-chan struct{}) {
	w := webview.New(false)
	defer w.Destroy()

	w.SetTitle("Plasma Etch Dashboard")
	w.SetSize(1280, 860, webview.HintNone)
	w.Navigate(url)

	closed := make(chan struct{})
	go func() {
		select {
		case <-done:
			w.Dispatch(w.Terminate)
		case <-closed:
		}
	}()

	w.Run()
	close(closed)
}
