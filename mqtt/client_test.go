package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    Command
		wantErr bool
	}{
		{"full", "remo/command/fan", `{"button":"power","type":"local"}`, Command{ApplianceID: "fan", Button: "power", Type: "local"}, false},
		{"empty payload", "remo/command/a1", ``, Command{ApplianceID: "a1"}, false},
		{"bad topic", "remo/command", `{}`, Command{}, true},
		{"nested topic", "remo/command/a/b", `{}`, Command{}, true},
		{"bad json", "remo/command/fan", `{`, Command{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.topic, []byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

type recordingHandler struct {
	got chan Command
}

func (h *recordingHandler) HandleCommand(ctx context.Context, cmd Command) error {
	h.got <- cmd
	return nil
}

func startBroker(t *testing.T) (*mochi.Server, int) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	_ = server.AddHook(new(auth.AllowHook), nil)
	tcp := listeners.NewTCP(listeners.Config{
		ID:      "tcp",
		Address: fmt.Sprintf("127.0.0.1:%d", port),
	})
	if err := server.AddListener(tcp); err != nil {
		t.Fatalf("add listener: %v", err)
	}
	if err := server.Serve(); err != nil {
		t.Fatalf("serve: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server, port
}

func TestClientCommandsAndStatus(t *testing.T) {
	server, port := startBroker(t)

	statuses := make(chan []byte, 1)
	err := server.Subscribe(StatusTopicPrefix+"+", 1, func(cl *mochi.Client, sub packets.Subscription, pk packets.Packet) {
		statuses <- pk.Payload
	})
	if err != nil {
		t.Fatalf("inline subscribe: %v", err)
	}

	client := NewClient(Config{Broker: "127.0.0.1", Port: port, ClientID: "remo-test"}, testr.New(t))
	if err := client.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := &recordingHandler{got: make(chan Command, 1)}
	if err := client.SubscribeCommands(ctx, handler); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := server.Publish(CommandTopicPrefix+"fan", []byte(`{"button":"power"}`), false, 0); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case cmd := <-handler.got:
		if cmd.ApplianceID != "fan" || cmd.Button != "power" {
			t.Fatalf("command = %+v", cmd)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("command not delivered")
	}

	if err := client.PublishStatus(Status{ApplianceID: "fan", SignalID: "s1", Surface: "cloud", Dispatched: true, Timestamp: time.Now()}); err != nil {
		t.Fatalf("publish status: %v", err)
	}

	select {
	case payload := <-statuses:
		var st Status
		if err := json.Unmarshal(payload, &st); err != nil {
			t.Fatalf("status payload: %v", err)
		}
		if st.SignalID != "s1" || !st.Dispatched {
			t.Fatalf("status = %+v", st)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("status not delivered")
	}
}
