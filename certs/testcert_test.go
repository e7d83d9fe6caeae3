package certs_test

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livetransit/network-monitor/certs"
)

func TestGenerateTestServerCertificateParsesBack(t *testing.T) {
	cert, err := certs.GenerateTestServerCertificate("localhost")
	require.NoError(t, err)
	require.Len(t, cert.Certificate, 1)
	require.NotNil(t, cert.PrivateKey)
	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	require.Equal(t, "localhost", parsed.Subject.CommonName)
}
