// Package busapi implements a resilient, typed client for method calls and
// property reads on the D-Bus system bus. All calls from one Client target a
// single well-known destination; errors whose names appear in the configured
// retry set are retried with a fixed backoff, everything else is surfaced to
// the caller.
package busapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 15 * time.Second
	retriesAllowed = 10
	retryBackoff   = time.Second

	propertiesGet = "org.freedesktop.DBus.Properties.Get"
)

// objectCaller is the slice of dbus.BusObject the client needs. Tests
// substitute fakes for it.
type objectCaller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Config carries the optional knobs for a Client. The zero value selects the
// defaults.
type Config struct {
	// MethodTimeout bounds each call attempt and property read.
	// Zero means 15 seconds.
	MethodTimeout time.Duration
	// Logger receives the client's diagnostics. Nil means the logrus
	// standard logger.
	Logger logrus.FieldLogger
}

// Client issues method calls and property reads against one destination bus
// name. The destination, timeout and retry-name set are fixed at
// construction.
//
// The underlying godbus connection handles its own synchronization, so a
// single Client may be shared between goroutines.
type Client struct {
	conn       *dbus.Conn
	object     func(path dbus.ObjectPath) objectCaller
	base       string
	timeout    time.Duration
	retryNames []string
	log        logrus.FieldLogger
	sleep      func(time.Duration)
	ownsConn   bool
}

// Connect opens a private connection to the system bus and returns a client
// for the given destination. retryNames lists the D-Bus error names treated
// as transient; calls failing with any of them are retried.
func Connect(base string, retryNames []string, cfg Config) (*Client, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("dbus: %w", err)
	}
	c := New(conn, base, retryNames, cfg)
	c.ownsConn = true
	return c, nil
}

// New wraps an existing connection. The connection stays owned by the
// caller; use Connect when the client should manage it.
func New(conn *dbus.Conn, base string, retryNames []string, cfg Config) *Client {
	c := &Client{
		conn:       conn,
		base:       base,
		timeout:    cfg.MethodTimeout,
		retryNames: append([]string(nil), retryNames...),
		log:        cfg.Logger,
		sleep:      time.Sleep,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	c.object = func(path dbus.ObjectPath) objectCaller {
		return conn.Object(c.base, path)
	}
	return c
}

// Close closes the connection if the client opened it.
func (c *Client) Close() error {
	if !c.ownsConn || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// MethodTimeout reports the per-attempt timeout applied to every call and
// property read.
func (c *Client) MethodTimeout() time.Duration {
	return c.timeout
}

// Call invokes a method that takes no arguments.
func (c *Client) Call(path, iface, method string) (*Response, error) {
	return c.CallWithArgs(path, iface, method)
}

// CallWithArgs invokes a method with the given arguments, retrying transient
// failures. The returned error is also logged.
func (c *Client) CallWithArgs(path, iface, method string, args ...any) (*Response, error) {
	resp, err := c.callWithRetry(path, iface, method, args)
	if err == nil {
		return resp, nil
	}
	kind := KindPermanentCall
	var inner *Error
	if errors.As(err, &inner) {
		kind = inner.Kind
	}
	ferr := &Error{
		Kind:    kind,
		Message: fmt.Sprintf("D-Bus '%s'::'%s' method call failed on '%s': %v", iface, method, path, err),
		cause:   err,
	}
	c.log.Error(ferr.Message)
	return nil, ferr
}

func (c *Client) callWithRetry(path, iface, method string, args []any) (*Response, error) {
	retries := 0

	for {
		resp, retry, err := c.sendOnce(path, iface, method, args)
		if !retry {
			return resp, err
		}

		retries++

		if retries == retriesAllowed {
			return nil, &Error{
				Kind:    KindRetriesExhausted,
				Message: fmt.Sprintf("method call failed after %d retries", retriesAllowed),
			}
		}

		c.log.Debugf("Retrying '%s'::'%s' method call: retry #%d", iface, method, retries)
		c.sleep(retryBackoff)
	}
}

// sendOnce performs one call attempt. retry is true when the failure carried
// a name from the retry set; resp and err are only meaningful when it is
// false.
func (c *Client) sendOnce(path, iface, method string, args []any) (resp *Response, retry bool, err error) {
	objPath := dbus.ObjectPath(path)
	if !objPath.IsValid() {
		return nil, false, &Error{
			Kind:    KindMessageBuild,
			Message: fmt.Sprintf("invalid object path %q", path),
		}
	}
	if iface == "" || method == "" {
		return nil, false, &Error{
			Kind:    KindMessageBuild,
			Message: "empty interface or method name",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	call := c.object(objPath).CallWithContext(ctx, iface+"."+method, 0, args...)
	if call.Err == nil {
		return &Response{body: call.Body}, false, nil
	}

	var dbusErr dbus.Error
	if errors.As(call.Err, &dbusErr) {
		for _, name := range c.retryNames {
			if dbusErr.Name == name {
				c.log.Debugf("Should retry D-Bus method call: %s", name)
				return nil, true, nil
			}
		}
		return nil, false, &Error{
			Kind:    KindPermanentCall,
			Message: errorDetail(dbusErr),
			cause:   dbusErr,
		}
	}
	return nil, false, &Error{
		Kind:    KindPermanentCall,
		Message: call.Err.Error(),
		cause:   call.Err,
	}
}

// PropertyString reads a property and coerces it to a string.
func (c *Client) PropertyString(path, iface, name string) (string, error) {
	return property(c, path, iface, name, AsString)
}

// PropertyInt64 reads a property and coerces it to a signed 64-bit integer.
func (c *Client) PropertyInt64(path, iface, name string) (int64, error) {
	return property(c, path, iface, name, AsInt64)
}

// PropertyUint32 reads a property and coerces it to an unsigned 32-bit
// integer.
func (c *Client) PropertyUint32(path, iface, name string) (uint32, error) {
	return property(c, path, iface, name, AsUint32)
}

// PropertyBool reads a property and coerces it with AsBool.
func (c *Client) PropertyBool(path, iface, name string) (bool, error) {
	return property(c, path, iface, name, AsBool)
}

// PropertyStringList reads a property and coerces it to a string slice.
func (c *Client) PropertyStringList(path, iface, name string) ([]string, error) {
	return property(c, path, iface, name, AsStringList)
}

// PropertyByteList reads a property and coerces it to a byte slice.
func (c *Client) PropertyByteList(path, iface, name string) ([]byte, error) {
	return property(c, path, iface, name, AsByteList)
}

func property[T any](c *Client, path, iface, name string, conv func(dbus.Variant) (T, bool)) (T, error) {
	var zero T

	variant, err := c.readProperty(path, iface, name)
	if err != nil {
		return zero, c.propertyError(path, iface, name, readDetail(err), KindPropertyRead)
	}

	value, ok := conv(variant)
	if !ok {
		return zero, c.propertyError(path, iface, name, "wrong property type", KindPropertyTypeMismatch)
	}
	return value, nil
}

func (c *Client) readProperty(path, iface, name string) (dbus.Variant, error) {
	objPath := dbus.ObjectPath(path)
	if !objPath.IsValid() {
		return dbus.Variant{}, fmt.Errorf("invalid object path %q", path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var variant dbus.Variant
	err := c.object(objPath).CallWithContext(ctx, propertiesGet, 0, iface, name).Store(&variant)
	return variant, err
}

// propertyError formats, logs and returns a property failure. Read failures
// log at warn, everything else at error.
func (c *Client) propertyError(path, iface, name, details string, kind Kind) *Error {
	msg := fmt.Sprintf("D-Bus get '%s'::'%s' property failed on '%s': %s", iface, name, path, details)
	if kind == KindPropertyRead {
		c.log.Warn(msg)
	} else {
		c.log.Error(msg)
	}
	return &Error{Kind: kind, Message: msg}
}

// readDetail picks the remote-supplied detail out of a failed property read.
func readDetail(err error) string {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		if len(dbusErr.Body) > 0 {
			if s, ok := dbusErr.Body[0].(string); ok && s != "" {
				return s
			}
		}
		return "no details"
	}
	return err.Error()
}

func errorDetail(err dbus.Error) string {
	if len(err.Body) > 0 {
		if s, ok := err.Body[0].(string); ok && s != "" {
			return s
		}
	}
	return "Undefined error message"
}
