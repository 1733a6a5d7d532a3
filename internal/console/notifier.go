package console

import (
	"fmt"
	"io"

	"pickme/internal/gateway"
	"pickme/internal/providers"
)

type NotifierInterface interface {
	Notice(message string)
	Failure(err error)
}

// Notifier writes notices to the terminal and to the action log.
type Notifier struct {
	out    io.Writer
	logger providers.Logger
}

func NewNotifier(out io.Writer, logger providers.Logger) NotifierInterface {
	return &Notifier{out: out, logger: logger}
}

func (n *Notifier) Notice(message string) {
	if message == "" {
		return
	}
	fmt.Fprintf(n.out, "» %s\n", message)
	n.logger.Infof(providers.TypeAction, "Notice: %s", message)
}

func (n *Notifier) Failure(err error) {
	if err == nil {
		return
	}
	msg := gateway.UserMessage(err)
	fmt.Fprintf(n.out, "! %s\n", msg)
	n.logger.Warnf(providers.TypeAction, "Failure shown to user: %s", err)
}
