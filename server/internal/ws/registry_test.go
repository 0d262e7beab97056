package ws

import (
	"bytes"
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

// pipeClient returns a Client backed by one end of a net.Pipe and the peer
// end the test reads from.
func pipeClient(t *testing.T) (*Client, net.Conn) {
	t.Helper()
	local, peer := net.Pipe()
	t.Cleanup(func() {
		local.Close()
		peer.Close()
	})
	return newClient(local, 500*time.Millisecond), peer
}

// expectFrame reads len(want) bytes from peer in the background and returns
// a channel that yields an error if they do not match.
func expectFrame(peer net.Conn, want []byte) <-chan error {
	done := make(chan error, 1)
	go func() {
		got := make([]byte, len(want))
		if _, err := io.ReadFull(peer, got); err != nil {
			done <- err
			return
		}
		if !bytes.Equal(got, want) {
			done <- io.ErrUnexpectedEOF
			return
		}
		done <- nil
	}()
	return done
}

func TestRegistry_AddRemoveCount(t *testing.T) {
	r := NewRegistry()
	a, _ := pipeClient(t)
	b, _ := pipeClient(t)

	r.Add(a)
	r.Add(b)
	if n := r.Count(); n != 2 {
		t.Fatalf("Count: got %d, want 2", n)
	}

	if !r.Remove(a) {
		t.Error("Remove(a): got false, want true")
	}
	if r.Remove(a) {
		t.Error("second Remove(a): got true, want false")
	}
	if n := r.Count(); n != 1 {
		t.Errorf("Count after remove: got %d, want 1", n)
	}
}

func TestRegistry_AddTwiceKeepsOneEntry(t *testing.T) {
	r := NewRegistry()
	c, _ := pipeClient(t)
	r.Add(c)
	r.Add(c)
	if n := r.Count(); n != 1 {
		t.Errorf("Count: got %d, want 1", n)
	}
}

func TestRegistry_Broadcast_PartialFailure(t *testing.T) {
	r := NewRegistry()
	healthy1, peer1 := pipeClient(t)
	healthy2, peer2 := pipeClient(t)
	severed, peer3 := pipeClient(t)
	r.Add(healthy1)
	r.Add(healthy2)
	r.Add(severed)

	// Sever the third client's stream from the remote side.
	peer3.Close()

	frame := EncodeText([]byte(`{"frame":42}`))
	got1 := expectFrame(peer1, frame)
	got2 := expectFrame(peer2, frame)

	delivered, failed := r.Broadcast(frame)
	if delivered != 2 || failed != 1 {
		t.Errorf("Broadcast: got delivered=%d failed=%d, want 2/1", delivered, failed)
	}
	for i, ch := range []<-chan error{got1, got2} {
		select {
		case err := <-ch:
			if err != nil {
				t.Errorf("healthy client %d: %v", i+1, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("healthy client %d: frame not received", i+1)
		}
	}

	if n := r.Count(); n != 2 {
		t.Errorf("Count after broadcast: got %d, want 2", n)
	}
	if r.Remove(severed) {
		t.Error("severed client still registered")
	}
	if !r.Remove(healthy1) || !r.Remove(healthy2) {
		t.Error("healthy client removed by broadcast")
	}
}

func TestRegistry_Broadcast_Empty(t *testing.T) {
	r := NewRegistry()
	delivered, failed := r.Broadcast(EncodeText([]byte("x")))
	if delivered != 0 || failed != 0 {
		t.Errorf("Broadcast on empty registry: got %d/%d, want 0/0", delivered, failed)
	}
}

func TestRegistry_Broadcast_SlowClientTimesOut(t *testing.T) {
	r := NewRegistry()
	local, peer := net.Pipe()
	t.Cleanup(func() {
		local.Close()
		peer.Close()
	})
	// Nobody reads from peer, so the write can only finish by deadline.
	slow := newClient(local, 50*time.Millisecond)
	r.Add(slow)

	start := time.Now()
	_, failed := r.Broadcast(EncodeText([]byte("stalled")))
	if failed != 1 {
		t.Errorf("failed: got %d, want 1", failed)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Broadcast took %v, want bounded by write timeout", elapsed)
	}
	if n := r.Count(); n != 0 {
		t.Errorf("Count: got %d, want 0", n)
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()
	var peers []net.Conn
	for i := 0; i < 3; i++ {
		c, peer := pipeClient(t)
		r.Add(c)
		peers = append(peers, peer)
	}

	r.CloseAll()

	if n := r.Count(); n != 0 {
		t.Errorf("Count after CloseAll: got %d, want 0", n)
	}
	for i, p := range peers {
		p.SetReadDeadline(time.Now().Add(time.Second))
		if _, err := p.Read(make([]byte, 1)); err != io.EOF {
			t.Errorf("peer %d read: got %v, want EOF", i, err)
		}
	}
}

func TestRegistry_ConcurrentMutationAndBroadcast(t *testing.T) {
	const n = 200
	r := NewRegistry()

	added := make(chan *Client, n)
	var (
		wg    sync.WaitGroup
		conns []net.Conn
	)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	// Adder.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(added)
		for i := 0; i < n; i++ {
			local, peer := net.Pipe()
			go io.Copy(io.Discard, peer) //nolint:errcheck
			conns = append(conns, local, peer)
			c := newClient(local, time.Second)
			r.Add(c)
			added <- c
		}
	}()

	// Remover takes every other client.
	var removed int
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		for c := range added {
			if i%2 == 0 && r.Remove(c) {
				removed++
			}
			i++
		}
	}()

	// Broadcaster runs until the mutators finish.
	stop := make(chan struct{})
	bdone := make(chan struct{})
	go func() {
		defer close(bdone)
		frame := EncodeText([]byte(`{"frame":1}`))
		for {
			select {
			case <-stop:
				return
			default:
				r.Broadcast(frame)
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-bdone

	if got, want := r.Count(), n-removed; got != want {
		t.Errorf("Count: got %d, want %d (adds %d - removes %d)", got, want, n, removed)
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	c, _ := pipeClient(t)
	c.Close()
	c.Close()
	if err := c.write([]byte("x")); err == nil {
		t.Error("write after Close: got nil error")
	}
}
