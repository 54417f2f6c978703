package api

import (
	"strconv"

	"github.com/r8k/webgraph/config"
)

// tocArgs builds the TOC subprocess invocation: target url, SOCKS5
// routing, and an explicit output path for the tree-JSON artifact.
func tocArgs(req startTOCRequest, tor config.Tor, artifactPath string) []string {
	host, port := tor.SocksHost, tor.SocksPort
	if req.SocksHost != "" {
		host = req.SocksHost
	}
	if req.SocksPort != 0 {
		port = req.SocksPort
	}
	return []string{
		"--url", req.URL,
		"--socks-host", host,
		"--socks-port", strconv.Itoa(port),
		"--output", artifactPath,
	}
}

// onionsearchArgs builds the OnionSearch subprocess invocation.
func onionsearchArgs(req startOnionSearchRequest, artifactPath string) []string {
	args := []string{"--query", req.Query, "--output", artifactPath}
	for _, engine := range req.Engines {
		args = append(args, "--engine", engine)
	}
	if req.Limit > 0 {
		args = append(args, "--limit", strconv.Itoa(req.Limit))
	}
	return args
}

// torbotArgs builds the TorBot subprocess invocation.
func torbotArgs(req startTorBotRequest, tor config.Tor, artifactPath string) []string {
	host, port := tor.SocksHost, tor.SocksPort
	if req.SocksHost != "" {
		host = req.SocksHost
	}
	if req.SocksPort != 0 {
		port = req.SocksPort
	}

	args := []string{"--url", req.URL, "--output", artifactPath}
	if req.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(req.Depth))
	}
	if req.DisableSocks5 {
		args = append(args, "--disable-socks5")
	} else {
		args = append(args, "--socks-host", host, "--socks-port", strconv.Itoa(port))
	}
	if req.InfoMode {
		args = append(args, "--info-mode")
	}
	if req.OutputFormat != "" {
		args = append(args, "--output-format", req.OutputFormat)
	}
	return args
}
