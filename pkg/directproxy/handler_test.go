package directproxy

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"mercator-hq/brokerproxy/pkg/egress"
	"mercator-hq/brokerproxy/pkg/ioloop"
	"mercator-hq/brokerproxy/pkg/proto"
	"mercator-hq/brokerproxy/pkg/proxyconn"
	"mercator-hq/brokerproxy/pkg/resolver"
)

// startEchoBackend simulates a broker: it accepts one connection, replies
// Connected to the proxy's handshake Connect, reads (and discards) one
// forwarded command frame, then echoes any further raw bytes back
// verbatim — standing in for the splice-mode byte pump's backend side.
func startEchoBackend(t *testing.T) (addr string, done chan struct{}) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done = make(chan struct{})

	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)

		if _, err := proto.ReadFrame(r); err != nil {
			return
		}
		header, _ := proto.EncodeCommand(&proto.Command{Name: proto.CmdConnected})
		if err := proto.WriteFrame(conn, header, nil); err != nil {
			return
		}

		if _, err := proto.ReadFrame(r); err != nil {
			return
		}

		io.Copy(conn, r)
	}()

	return ln.Addr().String(), done
}

func allowAllValidator(t *testing.T) *egress.Validator {
	t.Helper()
	v, err := egress.NewValidator([]string{"*"}, []string{"127.0.0.1/32"}, []string{"0-65535"})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestStartSplice_SuccessfulEndToEnd(t *testing.T) {
	backendAddr, backendDone := startEchoBackend(t)

	h := NewHandler(allowAllValidator(t), resolver.NewResolver(time.Second), nil, nil, Config{DialTimeout: 2 * time.Second})

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	worker := ioloop.NewWorker(0, 4)
	defer func() { worker.Stop(); worker.Wait() }()

	conn := proxyconn.New(1, serverConn, worker, proxyconn.Deps{Broker: h})

	serveDone := make(chan struct{})
	go func() { conn.Serve(context.Background()); close(serveDone) }()

	clientReader := bufio.NewReader(clientConn)

	write := func(cmd *proto.Command) {
		header, err := proto.EncodeCommand(cmd)
		if err != nil {
			t.Fatal(err)
		}
		if err := proto.WriteFrame(clientConn, header, nil); err != nil {
			t.Fatal(err)
		}
	}
	readCmd := func() *proto.Command {
		clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
		frame, err := proto.ReadFrame(clientReader)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		cmd, err := proto.DecodeCommand(frame.Header)
		if err != nil {
			t.Fatalf("DecodeCommand: %v", err)
		}
		return cmd
	}

	write(&proto.Command{Name: proto.CmdConnect})
	if reply := readCmd(); reply.Name != proto.CmdConnected {
		t.Fatalf("reply.Name = %v, want Connected", reply.Name)
	}

	write(&proto.Command{
		Name:             proto.CmdProducer,
		RequestID:        1,
		ProducerTopic:    "persistent://t/n/topic-0",
		BrokerServiceURL: "pulsar://" + backendAddr,
	})

	// Give the splice time to establish before sending raw bytes.
	time.Sleep(50 * time.Millisecond)

	payload := []byte("splice-mode-raw-bytes")
	if _, err := clientConn.Write(payload); err != nil {
		t.Fatalf("write raw payload: %v", err)
	}

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(clientConn, got); err != nil {
		t.Fatalf("read echoed payload: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("echoed payload = %q, want %q", got, payload)
	}

	clientConn.Close()

	select {
	case <-serveDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after client closed")
	}
	select {
	case <-backendDone:
	case <-time.After(2 * time.Second):
		t.Fatal("backend goroutine did not exit")
	}
}

func TestStartSplice_EgressRejectedReturnsSentinel(t *testing.T) {
	v, err := egress.NewValidator(nil, nil, nil) // deny-all
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(v, resolver.NewResolver(time.Second), nil, nil, Config{})

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	worker := ioloop.NewWorker(0, 4)
	defer func() { worker.Stop(); worker.Wait() }()
	conn := proxyconn.New(1, serverConn, worker, proxyconn.Deps{})

	err = h.StartSplice(context.Background(), conn, &proto.Command{
		Name:             proto.CmdProducer,
		BrokerServiceURL: "pulsar://127.0.0.1:6650",
	})
	if !errors.Is(err, proxyconn.ErrSpliceRejected) {
		t.Fatalf("StartSplice err = %v, want wrapped ErrSpliceRejected", err)
	}
}

func TestParseServiceURL(t *testing.T) {
	host, port, err := parseServiceURL("pulsar://broker-a.example:6650")
	if err != nil {
		t.Fatal(err)
	}
	if host != "broker-a.example" || port != 6650 {
		t.Errorf("got (%q, %d), want (broker-a.example, 6650)", host, port)
	}

	if _, _, err := parseServiceURL(""); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, _, err := parseServiceURL("not-a-url-at-all"); err == nil {
		t.Error("expected error for URL with no host")
	}
}
