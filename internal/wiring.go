package internal

import (
	"io"
	"os"

	"pickme/internal/animator"
	"pickme/internal/console"
	"pickme/internal/gateway"
	"pickme/internal/providers"
	"pickme/internal/render"
	"pickme/internal/services"
	"pickme/internal/state"
	"pickme/internal/structures"

	"github.com/mattn/go-colorable"
)

// Small adapters between constructors that return concrete types and the
// narrower interfaces their consumers accept.

func ProvideTerminal() *console.SyncWriter {
	return console.NewSyncWriter(colorable.NewColorableStdout())
}

func ProvideInput() io.Reader {
	return os.Stdin
}

func ProvideView(store state.StoreInterface) state.ViewInterface {
	return store
}

func ProvidePayloadSource(store state.StoreInterface) gateway.PayloadSource {
	return store
}

func ProvideFrameSink(out *console.SyncWriter) animator.FrameSink {
	return console.NewFramePrinter(out)
}

func ProvideSelectionReader(a animator.AnimatorInterface) animator.SelectionReader {
	return a
}

func ProvideNotifier(out *console.SyncWriter, logger providers.Logger) services.Notifier {
	return console.NewNotifier(out, logger)
}

func ProvideRenderScheduler(conf *structures.Config, renderer *console.Renderer, logger providers.Logger) render.SchedulerInterface {
	return render.NewScheduler(conf, renderer, logger)
}
