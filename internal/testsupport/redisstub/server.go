// Package redisstub hosts a minimal in-process Redis fake for integration
// tests. It speaks enough RESP2 to back the notification queue (streams with
// consumer groups) and the webhook rate limiter (counter keys with expiry)
// without touching the network beyond a loopback listener. Commands it does
// not understand receive an error reply and the connection stays open, which
// lets real client libraries negotiate protocol features and fall back.
package redisstub

import (
	"bufio"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Options struct {
	Password  string
	EnableTLS bool
}

type Server struct {
	opts     Options
	listener net.Listener
	addr     string
	mu       sync.Mutex
	streams  map[string]*stream
	counters map[string]*counter
	closed   chan struct{}
	tlsCert  tls.Certificate
	certPEM  []byte
	keyPEM   []byte
}

type stream struct {
	entries []streamEntry
	groups  map[string]*groupState
}

type streamEntry struct {
	id     string
	values map[string]string
}

type groupState struct {
	nextIndex int
	pending   map[string]struct{}
}

type counter struct {
	value  int64
	expiry time.Time
}

func Start(opts Options) (*Server, error) {
	server := &Server{
		opts:     opts,
		streams:  make(map[string]*stream),
		counters: make(map[string]*counter),
		closed:   make(chan struct{}),
	}
	addr := "127.0.0.1:0"
	var (
		ln  net.Listener
		err error
	)
	if opts.EnableTLS {
		certPEM, keyPEM, cert, certErr := generateSelfSignedCert()
		if certErr != nil {
			return nil, certErr
		}
		server.tlsCert = cert
		server.certPEM = certPEM
		server.keyPEM = keyPEM
		ln, err = tls.Listen("tcp", addr, &tls.Config{Certificates: []tls.Certificate{cert}})
	} else {
		ln, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return nil, err
	}
	server.listener = ln
	server.addr = ln.Addr().String()
	go server.serve()
	return server, nil
}

func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) CertPEM() []byte {
	return s.certPEM
}

func (s *Server) KeyPEM() []byte {
	return s.keyPEM
}

// StreamLen reports how many entries a stream holds, for test assertions.
func (s *Server) StreamLen(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	strm, ok := s.streams[name]
	if !ok {
		return 0
	}
	return len(strm.entries)
}

func (s *Server) Close() error {
	s.mu.Lock()
	select {
	case <-s.closed:
		s.mu.Unlock()
		return nil
	default:
	}
	close(s.closed)
	s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	return nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)
	authenticated := s.opts.Password == ""
	for {
		args, err := readArray(reader)
		if err != nil {
			return
		}
		if len(args) == 0 {
			if err := writeError(writer, "ERR wrong number of arguments"); err != nil {
				return
			}
			continue
		}
		var ok bool
		switch strings.ToUpper(args[0]) {
		case "PING":
			ok = writeSimpleString(writer, "PONG") == nil
		case "HELLO":
			// RESP3 negotiation is not supported; clients fall back to
			// RESP2 after this error.
			ok = writeError(writer, "ERR unknown command 'HELLO'") == nil
		case "CLIENT":
			ok = writeSimpleString(writer, "OK") == nil
		case "SELECT":
			ok = writeSimpleString(writer, "OK") == nil
		case "AUTH":
			password := ""
			switch len(args) {
			case 2:
				password = args[1]
			case 3:
				password = args[2]
			default:
				ok = writeError(writer, "ERR wrong number of arguments for 'auth'") == nil
				continue
			}
			if s.opts.Password == "" || password == s.opts.Password {
				authenticated = true
				ok = writeSimpleString(writer, "OK") == nil
			} else {
				ok = writeError(writer, "WRONGPASS invalid username-password pair") == nil
			}
		default:
			if !authenticated {
				ok = writeError(writer, "NOAUTH Authentication required.") == nil
				break
			}
			ok = s.dispatch(writer, args)
		}
		if !ok {
			return
		}
	}
}

func (s *Server) dispatch(writer *bufio.Writer, args []string) bool {
	switch strings.ToUpper(args[0]) {
	case "XADD":
		if len(args) < 5 {
			return writeError(writer, "ERR wrong number of arguments for 'xadd'") == nil
		}
		name := args[1]
		id := args[2]
		if id == "*" {
			id = fmt.Sprintf("%d-0", time.Now().UnixNano())
		}
		values := make(map[string]string)
		for i := 3; i+1 < len(args); i += 2 {
			values[args[i]] = args[i+1]
		}
		s.mu.Lock()
		strm := s.ensureStream(name)
		strm.entries = append(strm.entries, streamEntry{id: id, values: values})
		s.mu.Unlock()
		return writeBulkString(writer, id) == nil
	case "XGROUP":
		if len(args) < 4 || strings.ToUpper(args[1]) != "CREATE" {
			return writeError(writer, "ERR only XGROUP CREATE is supported") == nil
		}
		name := args[2]
		group := args[3]
		s.mu.Lock()
		strm := s.ensureStream(name)
		if _, exists := strm.groups[group]; exists {
			s.mu.Unlock()
			return writeError(writer, "BUSYGROUP Consumer Group name already exists") == nil
		}
		strm.groups[group] = &groupState{pending: make(map[string]struct{})}
		s.mu.Unlock()
		return writeSimpleString(writer, "OK") == nil
	case "XREADGROUP":
		return s.handleXReadGroup(writer, args)
	case "XACK":
		if len(args) < 4 {
			return writeError(writer, "ERR wrong number of arguments for 'xack'") == nil
		}
		acked := s.ack(args[1], args[2], args[3:])
		return writeInteger(writer, int64(acked)) == nil
	case "INCR":
		if len(args) != 2 {
			return writeError(writer, "ERR wrong number of arguments for 'incr'") == nil
		}
		return writeInteger(writer, s.incr(args[1])) == nil
	case "EXPIRE":
		if len(args) != 3 {
			return writeError(writer, "ERR wrong number of arguments for 'expire'") == nil
		}
		seconds, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return writeError(writer, "ERR invalid expire time") == nil
		}
		s.expire(args[1], time.Duration(seconds)*time.Second)
		return writeInteger(writer, 1) == nil
	case "TTL":
		if len(args) != 2 {
			return writeError(writer, "ERR wrong number of arguments for 'ttl'") == nil
		}
		return writeInteger(writer, s.ttl(args[1])) == nil
	default:
		return writeError(writer, fmt.Sprintf("ERR unknown command '%s'", args[0])) == nil
	}
}

func (s *Server) ensureStream(name string) *stream {
	strm, ok := s.streams[name]
	if !ok {
		strm = &stream{groups: make(map[string]*groupState)}
		s.streams[name] = strm
	}
	return strm
}

func (s *Server) handleXReadGroup(writer *bufio.Writer, args []string) bool {
	var group, name string
	count := 1
	blockMs := 0
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "GROUP":
			if i+2 >= len(args) {
				return writeError(writer, "ERR syntax error") == nil
			}
			group = args[i+1]
			i += 2
		case "COUNT":
			if i+1 >= len(args) {
				return writeError(writer, "ERR syntax error") == nil
			}
			v, err := strconv.Atoi(args[i+1])
			if err != nil {
				return writeError(writer, "ERR invalid COUNT") == nil
			}
			count = v
			i++
		case "BLOCK":
			if i+1 >= len(args) {
				return writeError(writer, "ERR syntax error") == nil
			}
			v, err := strconv.Atoi(args[i+1])
			if err != nil {
				return writeError(writer, "ERR invalid BLOCK") == nil
			}
			blockMs = v
			i++
		case "STREAMS":
			if i+2 >= len(args) {
				return writeError(writer, "ERR syntax error") == nil
			}
			name = args[i+1]
			i = len(args)
		}
	}
	if name == "" || group == "" {
		return writeError(writer, "ERR missing stream or group") == nil
	}
	deadline := time.Now().Add(time.Duration(blockMs) * time.Millisecond)
	for {
		records := s.readGroup(name, group, count)
		if len(records) > 0 {
			reply := []interface{}{[]interface{}{name, records}}
			return writeArray(writer, reply) == nil
		}
		if blockMs <= 0 || time.Now().After(deadline) {
			return writeBulkNil(writer) == nil
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func (s *Server) readGroup(name, group string, count int) []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	strm := s.ensureStream(name)
	state, ok := strm.groups[group]
	if !ok {
		state = &groupState{pending: make(map[string]struct{})}
		strm.groups[group] = state
	}
	start := state.nextIndex
	if start >= len(strm.entries) {
		return nil
	}
	end := start + count
	if end > len(strm.entries) {
		end = len(strm.entries)
	}
	records := make([]interface{}, 0, end-start)
	for i := start; i < end; i++ {
		entry := strm.entries[i]
		state.pending[entry.id] = struct{}{}
		records = append(records, []interface{}{entry.id, flatten(entry.values)})
	}
	state.nextIndex = end
	return records
}

func flatten(values map[string]string) []interface{} {
	out := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		out = append(out, k, v)
	}
	return out
}

func (s *Server) ack(name, group string, ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	strm, ok := s.streams[name]
	if !ok {
		return 0
	}
	state, ok := strm.groups[group]
	if !ok {
		return 0
	}
	acked := 0
	for _, id := range ids {
		if _, exists := state.pending[id]; exists {
			delete(state.pending, id)
			acked++
		}
	}
	return acked
}

func (s *Server) incr(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.counters[key]
	if entry == nil || (!entry.expiry.IsZero() && time.Now().After(entry.expiry)) {
		entry = &counter{}
		s.counters[key] = entry
	}
	entry.value++
	return entry.value
}

func (s *Server) expire(key string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.counters[key]
	if entry == nil {
		entry = &counter{}
		s.counters[key] = entry
	}
	entry.expiry = time.Now().Add(ttl)
}

func (s *Server) ttl(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.counters[key]
	if entry == nil || entry.expiry.IsZero() {
		return -1
	}
	remaining := time.Until(entry.expiry)
	if remaining <= 0 {
		delete(s.counters, key)
		return -2
	}
	seconds := int64(remaining / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func generateSelfSignedCert() ([]byte, []byte, tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, tls.Certificate{}, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"127.0.0.1", "localhost"},
	}
	tmpl.IPAddresses = []net.IP{net.ParseIP("127.0.0.1")}
	derBytes, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, tls.Certificate{}, err
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, nil, tls.Certificate{}, err
	}
	return certPEM, keyPEM, cert, nil
}

func readArray(r *bufio.Reader) ([]string, error) {
	prefix, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if prefix != '*' {
		return nil, fmt.Errorf("unexpected prefix %q", prefix)
	}
	length, err := readLength(r)
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, length)
	for i := 0; i < length; i++ {
		arg, err := readBulkString(r)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func readLength(r *bufio.Reader) (int, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, err
	}
	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
	return strconv.Atoi(line)
}

func readBulkString(r *bufio.Reader) (string, error) {
	prefix, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	if prefix != '$' {
		return "", fmt.Errorf("unexpected prefix %q", prefix)
	}
	length, err := readLength(r)
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", nil
	}
	buf := make([]byte, length+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf[:length]), nil
}

func writeSimpleString(w *bufio.Writer, value string) error {
	if _, err := fmt.Fprintf(w, "+%s\r\n", value); err != nil {
		return err
	}
	return w.Flush()
}

func writeBulkString(w *bufio.Writer, value string) error {
	if err := writeBulkStringRaw(w, value); err != nil {
		return err
	}
	return w.Flush()
}

func writeBulkNil(w *bufio.Writer) error {
	if _, err := w.WriteString("$-1\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

func writeInteger(w *bufio.Writer, value int64) error {
	if _, err := fmt.Fprintf(w, ":%d\r\n", value); err != nil {
		return err
	}
	return w.Flush()
}

func writeArray(w *bufio.Writer, values []interface{}) error {
	if err := writeArrayRaw(w, values); err != nil {
		return err
	}
	return w.Flush()
}

func writeArrayRaw(w *bufio.Writer, values []interface{}) error {
	if _, err := fmt.Fprintf(w, "*%d\r\n", len(values)); err != nil {
		return err
	}
	for _, value := range values {
		switch v := value.(type) {
		case string:
			if err := writeBulkStringRaw(w, v); err != nil {
				return err
			}
		case int64:
			if _, err := fmt.Fprintf(w, ":%d\r\n", v); err != nil {
				return err
			}
		case []interface{}:
			if err := writeArrayRaw(w, v); err != nil {
				return err
			}
		default:
			if err := writeBulkStringRaw(w, fmt.Sprint(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeBulkStringRaw(w *bufio.Writer, value string) error {
	_, err := fmt.Fprintf(w, "$%d\r\n%s\r\n", len(value), value)
	return err
}

func writeError(w *bufio.Writer, msg string) error {
	if _, err := fmt.Fprintf(w, "-%s\r\n", msg); err != nil {
		return err
	}
	return w.Flush()
}
