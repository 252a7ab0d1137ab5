package sshbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/ifworker/ifworker/pkg/rpcbus"
	"github.com/ifworker/ifworker/pkg/schema"
)

// DefaultPollTimeout is how long Call waits for a synchronous reply
// before treating the call as deferred and handing the caller a
// Pending UUID instead.
const DefaultPollTimeout = 200 * time.Millisecond

// Client is a rpcbus.Client and rpcbus.SignalSource backed by a Redis
// connection, optionally reached through an SSH tunnel. The zero value
// is not usable; build one with Dial or New.
type Client struct {
	rdb         *redis.Client
	tunnel      *tunnel
	pollTimeout time.Duration

	out  chan rpcbus.Signal
	done chan struct{}
	wg   sync.WaitGroup

	closeOnce sync.Once
}

// Dial opens an SSH connection to host:sshPort, tunnels it to
// remoteRedisAddr (the object-model daemon's Redis listener on that
// host), and returns a Client issuing calls over that tunnel. sshPort
// defaults to 22 when zero.
func Dial(host, user, pass string, sshPort int, remoteRedisAddr string) (*Client, error) {
	t, err := dialTunnel(host, user, pass, sshPort, remoteRedisAddr)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(&redis.Options{Addr: t.LocalAddr()})
	c := newClient(rdb, t)
	return c, nil
}

// New wraps an already-connected redis.Client directly, with no SSH
// tunnel of its own. Used against a daemon reachable without SSH (a
// sidecar on the same host, or a test fixture).
func New(rdb *redis.Client) *Client {
	return newClient(rdb, nil)
}

func newClient(rdb *redis.Client, t *tunnel) *Client {
	c := &Client{
		rdb:         rdb,
		tunnel:      t,
		pollTimeout: DefaultPollTimeout,
		out:         make(chan rpcbus.Signal, 64),
		done:        make(chan struct{}),
	}
	c.wg.Add(1)
	go c.subscribeLoop()
	return c
}

// SetPollTimeout overrides DefaultPollTimeout; tests use a short value
// so a deliberately-deferred call doesn't stall.
func (c *Client) SetPollTimeout(d time.Duration) { c.pollTimeout = d }

// Call implements rpcbus.Client: it pushes a callEnvelope onto the
// shared calls list and polls this call's reply key for pollTimeout. A
// reply that never shows up within that window is not a failure — it
// means the daemon deferred the call, and the eventual answer arrives
// later as a wireCompletion signal.
func (c *Client) Call(ctx context.Context, objectPath, service, method string, args schema.ArgDoc) (rpcbus.Reply, error) {
	id := uuid.New()
	env := callEnvelope{
		ID:         id.String(),
		ObjectPath: objectPath,
		Service:    service,
		Method:     method,
		Args:       args.Values,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return rpcbus.Reply{}, fmt.Errorf("%w: encoding call: %v", rpcbus.ErrTransport, err)
	}
	if err := c.rdb.RPush(ctx, callsKey, raw).Err(); err != nil {
		return rpcbus.Reply{}, fmt.Errorf("%w: %v", rpcbus.ErrTransport, err)
	}

	replyKey := replyKeyPrefix + env.ID
	res, err := c.rdb.BLPop(ctx, c.pollTimeout, replyKey).Result()
	if errors.Is(err, redis.Nil) {
		return rpcbus.Reply{Pending: []uuid.UUID{id}}, nil
	}
	if err != nil {
		return rpcbus.Reply{}, fmt.Errorf("%w: %v", rpcbus.ErrTransport, err)
	}

	// BLPop returns [key, value].
	var reply replyEnvelope
	if err := json.Unmarshal([]byte(res[1]), &reply); err != nil {
		return rpcbus.Reply{}, fmt.Errorf("%w: decoding reply: %v", rpcbus.ErrTransport, err)
	}
	if reply.ErrorCode != "" || reply.ErrorText != "" {
		return rpcbus.Reply{}, mapReplyError(reply)
	}
	return rpcbus.Reply{Document: schema.ArgDoc{Values: reply.Document}, Completed: true}, nil
}

// Signals implements rpcbus.SignalSource.
func (c *Client) Signals() <-chan rpcbus.Signal {
	return c.out
}

func (c *Client) subscribeLoop() {
	defer c.wg.Done()
	sub := c.rdb.Subscribe(context.Background(), signalsChannel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				close(c.out)
				return
			}
			var wire wireSignal
			if err := json.Unmarshal([]byte(msg.Payload), &wire); err != nil {
				continue
			}
			if sig, ok := translateSignal(wire); ok {
				c.out <- sig
			}
		case <-c.done:
			close(c.out)
			return
		}
	}
}

func translateSignal(w wireSignal) (rpcbus.Signal, bool) {
	switch w.Kind {
	case wireCompletion:
		id, err := uuid.Parse(w.CallbackID)
		if err != nil {
			return rpcbus.Signal{}, false
		}
		var callErr error
		if w.ErrorCode != "" || w.ErrorText != "" {
			callErr = mapReplyError(replyEnvelope{ErrorCode: w.ErrorCode, ErrorText: w.ErrorText})
		}
		return rpcbus.Signal{Kind: rpcbus.SignalCompletion, CallbackID: id, Err: callErr}, true
	case wireDeviceCreated:
		return rpcbus.Signal{Kind: rpcbus.SignalDeviceCreated, Name: w.Name, IfIndex: w.IfIndex, ObjectPath: w.ObjectPath}, true
	case wireDeviceDeleted:
		return rpcbus.Signal{Kind: rpcbus.SignalDeviceDeleted, Name: w.Name, IfIndex: w.IfIndex, ObjectPath: w.ObjectPath}, true
	case wireLinkChanged:
		return rpcbus.Signal{Kind: rpcbus.SignalLinkChanged, Name: w.Name, IfIndex: w.IfIndex, ObjectPath: w.ObjectPath}, true
	default:
		return rpcbus.Signal{}, false
	}
}

func mapReplyError(r replyEnvelope) error {
	var sentinel error
	switch r.ErrorCode {
	case errCodeNoSuchObject:
		sentinel = rpcbus.ErrNoSuchObject
	case errCodeNoSuchMethod:
		sentinel = rpcbus.ErrNoSuchMethod
	case errCodeBadArgument:
		sentinel = rpcbus.ErrArgumentTypeMismatch
	default:
		sentinel = rpcbus.ErrRemote
	}
	if r.ErrorText == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, r.ErrorText)
}

// Close stops the signal subscription and, if Dial opened one, tears
// down the SSH tunnel. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
		err = c.rdb.Close()
		if c.tunnel != nil {
			if tErr := c.tunnel.Close(); tErr != nil && err == nil {
				err = tErr
			}
		}
	})
	return err
}
