// Package layout obtains the network-layout document the monitor loads at
// startup: either a local file or an HTTPS download verified against a CA
// bundle, decoded with json-iterator the way the rest of this module's
// wire-facing packages do.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package layout

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/livetransit/network-monitor/network"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const dfltFetchTimeout = 30 * time.Second

// LoadCABundle reads a PEM CA bundle from path into a cert pool usable for
// both the layout fetcher and the upstream STOMP client's TLS dialer.
func LoadCABundle(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "layout: read CA bundle")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("layout: no certificates parsed from %s", path)
	}
	return pool, nil
}

// Fetch GETs url, verifying the server certificate against caPool, and
// writes the response body to destPath. It is the "external collaborator"
// §6 calls out so the core can obtain the layout when no local path is
// configured.
func Fetch(ctx context.Context, url, destPath string, caPool *x509.CertPool) error {
	client := &http.Client{
		Timeout: dfltFetchTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12},
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "layout: build request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "layout: download")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("layout: download: unexpected status %s", resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return errors.Wrapf(err, "layout: create %s", destPath)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return errors.Wrapf(err, "layout: write %s", destPath)
	}
	return nil
}

// ReadFile decodes a layout document from a local path.
func ReadFile(path string) (*network.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "layout: read %s", path)
	}
	doc := &network.Document{}
	if err := jsonAPI.Unmarshal(raw, doc); err != nil {
		return nil, errors.Wrapf(err, "layout: parse %s", path)
	}
	return doc, nil
}
