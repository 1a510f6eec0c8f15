package quic

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"math/big"
	"sync"
	"time"

	quicgo "github.com/quic-go/quic-go"

	"meshrpc/pkg/transport"
)

// DefaultHint is bound when the caller gives no contact hint.
const DefaultHint = "127.0.0.1:0"

// ALPN is the application protocol negotiated on every connection.
const ALPN = "meshrpc"

// Backend binds a QUIC listener with an ephemeral self-signed certificate.
// Peer identity is expected to be verified above the transport.
type Backend struct {
	quicConf *quicgo.Config
}

func New() *Backend {
	return &Backend{quicConf: &quicgo.Config{KeepAlivePeriod: 15 * time.Second}}
}

func (b *Backend) Kind() transport.Kind { return transport.KindQUIC }

func (b *Backend) Init(ctx context.Context, hint string) (transport.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hint == "" {
		hint = DefaultHint
	}
	cert, err := selfSignedCert()
	if err != nil {
		return nil, err
	}
	tlsConf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{ALPN},
		MinVersion:   tls.VersionTLS13,
	}
	l, err := quicgo.ListenAddr(hint, tlsConf, b.quicConf)
	if err != nil {
		return nil, err
	}
	return &Handle{l: l}, nil
}

// ClientTLS returns the TLS config a peer uses to dial a Handle. The
// certificate is not verified; identity is checked at the application layer.
func ClientTLS() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{ALPN},
		MinVersion:         tls.VersionTLS13,
	}
}

// Handle is a bound QUIC listener.
type Handle struct {
	l         *quicgo.Listener
	closeOnce sync.Once
}

func (h *Handle) Contact() transport.Address {
	return transport.NewAddress(transport.KindQUIC, h.l.Addr().String())
}

// Accept returns the next inbound QUIC connection.
func (h *Handle) Accept(ctx context.Context) (quicgo.Connection, error) { return h.l.Accept(ctx) }

func (h *Handle) Shutdown(_ context.Context) error {
	var err error
	h.closeOnce.Do(func() { err = h.l.Close() })
	return err
}

// selfSignedCert generates a short-lived self-signed certificate for local QUIC use.
func selfSignedCert() (tls.Certificate, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}
	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}
