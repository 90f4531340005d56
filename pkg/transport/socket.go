// Package transport supplies the concrete UDP Proto and the inbound
// dispatcher that together let pkg/rudp's Connection talk to a real
// network. Grounded on the teacher's source/server/server.go: NewServer +
// Start + listen's ReadFromUDP loop, generalized from one SA-MP socket to
// an address-keyed registry of RUDP connections.
package transport

import (
	"net"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ventos-labs/rudp/pkg/rudp"
)

// UDPSocket implements rudp.Proto over a real net.UDPConn.
type UDPSocket struct {
	conn *net.UDPConn
	log  *logrus.Entry
}

// Listen binds a UDP socket at addr ("host:port"), mirroring the teacher's
// net.ListenUDP call in Server.Start.
func Listen(addr string, log *logrus.Entry) (*UDPSocket, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: resolve %q", addr)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: bind %q", addr)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &UDPSocket{conn: conn, log: log}, nil
}

// LocalAddr reports the bound address as an rudp.Address.
func (s *UDPSocket) LocalAddr() rudp.Address {
	a := s.conn.LocalAddr().(*net.UDPAddr)
	return rudp.Address{IP: a.IP.String(), Port: uint16(a.Port)}
}

// SendDatagram implements rudp.Proto.
func (s *UDPSocket) SendDatagram(data []byte, addr rudp.Address) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr.String())
	if err != nil {
		return errors.Wrapf(err, "transport: resolve dest %q", addr.String())
	}
	_, err = s.conn.WriteToUDP(data, udpAddr)
	if err != nil {
		return errors.Wrapf(err, "transport: write to %q", addr.String())
	}
	return nil
}

// ReadFrom reads one inbound datagram, mirroring the teacher's buffer-copy
// pattern in Server.listen (ReadFromUDP into a scratch buffer, then copying
// only the n received bytes out before handing them off).
func (s *UDPSocket) ReadFrom(scratch []byte) ([]byte, rudp.Address, error) {
	n, addr, err := s.conn.ReadFromUDP(scratch)
	if err != nil {
		return nil, rudp.Address{}, err
	}
	data := make([]byte, n)
	copy(data, scratch[:n])
	return data, rudp.Address{IP: addr.IP.String(), Port: uint16(addr.Port)}, nil
}

// Close releases the underlying socket.
func (s *UDPSocket) Close() error {
	return s.conn.Close()
}
