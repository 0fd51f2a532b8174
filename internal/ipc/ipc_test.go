package ipc

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// t.TempDir paths can exceed the unix socket length limit.
	dir, err := os.MkdirTemp("", "azura")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "ctl.sock")
}

func TestRoundTrip(t *testing.T) {
	path := socketPath(t)

	got := make(chan ControlMessage, 1)
	srv, err := StartServer(path, func(msg ControlMessage) Reply {
		got <- msg
		return Reply{Text: "It's 9:05"}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	r, err := SendCommand(path, ControlMessage{Cmd: CmdTrigger, Text: "what time is it"}, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if r.Text != "It's 9:05" || r.Error != "" {
		t.Fatalf("reply = %+v", r)
	}

	msg := <-got
	if msg.Cmd != CmdTrigger || msg.Text != "what time is it" {
		t.Fatalf("handler got %+v", msg)
	}
}

func TestStaleSocketReplaced(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	srv, err := StartServer(path, func(ControlMessage) Reply { return Reply{} })
	if err != nil {
		t.Fatal(err)
	}
	srv.Close()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("socket left behind: %v", err)
	}
}

func TestSendWithoutServer(t *testing.T) {
	if _, err := SendCommand(socketPath(t), ControlMessage{Cmd: CmdTrigger}, time.Second); err == nil {
		t.Fatal("send succeeded with no server")
	}
}
