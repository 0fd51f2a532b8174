package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"azura/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	timeout := cli.DurationP("timeout", "t", 30*time.Second, "How long to wait for the response")
	cli.Parse()

	text := strings.Join(cli.Args(), " ")
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: azura-ctl [--socket path] <utterance...>")
		os.Exit(2)
	}

	r, err := ipc.SendCommand(*socket, ipc.ControlMessage{Cmd: ipc.CmdTrigger, Text: text}, *timeout)
	if err != nil {
		fmt.Println("azura not running:", err)
		os.Exit(1)
	}
	if r.Text != "" {
		fmt.Println(r.Text)
	}
	if r.Error != "" {
		fmt.Fprintln(os.Stderr, "error:", r.Error)
		os.Exit(1)
	}
}
