// Package sshbus is the reference rpcbus.Client adapter: it dials a
// remote host over SSH, tunnels a Redis connection through that
// session to the host's local object-model daemon, and issues bus
// calls as Redis commands against a request/reply/pubsub protocol
// (protocol.go).
package sshbus

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// tunnel forwards a local TCP port to a fixed remote address through an
// SSH connection, so a plain redis.Client can dial "127.0.0.1:<port>"
// without knowing anything about SSH.
type tunnel struct {
	localAddr string
	sshClient *ssh.Client
	remote    string
	listener  net.Listener
	done      chan struct{}
	wg        sync.WaitGroup
}

// dialTunnel opens an SSH connection to host:port and a local listener
// on a random port; every local connection is forwarded to remoteAddr
// (the daemon's Redis listener) inside the SSH host. port defaults to
// 22 when zero.
func dialTunnel(host, user, pass string, port int, remoteAddr string) (*tunnel, error) {
	if port == 0 {
		port = 22
	}
	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(pass),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	sshClient, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("sshbus: dial %s@%s: %w", user, addr, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sshbus: local listen: %w", err)
	}

	t := &tunnel{
		localAddr: listener.Addr().String(),
		sshClient: sshClient,
		remote:    remoteAddr,
		listener:  listener,
		done:      make(chan struct{}),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return t, nil
}

func (t *tunnel) LocalAddr() string { return t.localAddr }

func (t *tunnel) Close() error {
	close(t.done)
	t.listener.Close()
	// Closing the SSH client first tears down every forwarded
	// connection, unblocking the io.Copy goroutines in forward().
	t.sshClient.Close()
	t.wg.Wait()
	return nil
}

func (t *tunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *tunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer local.Close()

	remote, err := t.sshClient.Dial("tcp", t.remote)
	if err != nil {
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote)
		done <- struct{}{}
	}()
	<-done
}
