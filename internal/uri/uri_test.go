package uri

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitValid(t *testing.T) {
	cases := []struct {
		uri    string
		scheme Scheme
		host   string
		port   string
	}{
		{"opc.tcp://127.0.0.1:4841", TCPUA, "127.0.0.1", "4841"},
		{"opc.tcp://[fe80::1]:4840/ep", TCPUA, "[fe80::1]", "4840"},
		{"opc.tcp://host.example.com:4840", TCPUA, "host.example.com", "4840"},
		{"opc.udp://239.0.0.1:4840", UDPUA, "239.0.0.1", "4840"},
		{"opc.eth://eth0:100", ETHUA, "eth0", "100"},
		{"MqttUa://broker:1883/topic", MQTTUA, "broker", "1883"},
		{"OPC.TCP://HOST:4840", TCPUA, "HOST", "4840"}, // scheme match is case-insensitive
	}
	for _, c := range cases {
		t.Run(c.uri, func(t *testing.T) {
			scheme, host, port, err := Split(c.uri)
			require.NoError(t, err)
			assert.Equal(t, c.scheme, scheme)
			assert.Equal(t, c.host, host)
			assert.Equal(t, c.port, port)
		})
	}
}

func TestSplitInvalid(t *testing.T) {
	cases := []string{
		"http://x:1",
		"opc.tcp://host:/",
		"opc.tcp://host",
		"opc.tcp://:1234",
		"opc.tcp://[fe80::1:1234",  // unbalanced bracket
		"opc.tcp://]fe80::1]:1234", // stray close bracket
		"opc.tcp://host:abc",       // non-decimal port
		"opc.tcp://host:1234x",     // junk right after port, no '/'
		"",
		"opc.tcp",
	}
	for _, uri := range cases {
		t.Run(uri, func(t *testing.T) {
			_, _, _, err := Split(uri)
			assert.ErrorIs(t, err, ErrInvalidURI)
		})
	}
}

func TestSplitLengthCeiling(t *testing.T) {
	host := strings.Repeat("a", MaxLength)
	long := "opc.tcp://" + host + ":4840"
	_, _, _, err := Split(long)
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestSplitJoinRoundTrip(t *testing.T) {
	cases := []string{
		"opc.tcp://127.0.0.1:4841",
		"opc.tcp://[fe80::1]:4840",
		"OPC.TCP://host:4840",
	}
	for _, uri := range cases {
		t.Run(uri, func(t *testing.T) {
			scheme, host, port, err := Split(uri)
			require.NoError(t, err)
			rejoined := Join(scheme, host, port)
			// Round trip modulo scheme case: compare case-insensitively on
			// the scheme keyword only.
			sepIdx := strings.Index(uri, "://")
			require.Greater(t, sepIdx, 0)
			assert.True(t, strings.EqualFold(uri[:sepIdx], rejoined[:strings.Index(rejoined, "://")]))
			assert.Equal(t, uri[sepIdx:], rejoined[strings.Index(rejoined, "://"):])
		})
	}
}
