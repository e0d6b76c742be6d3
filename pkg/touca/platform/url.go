package platform

import (
	"fmt"
	"net/url"
	"strings"
)

// Address is a parsed platform URL, splitting the optional
// `/@/team/suite/version` trailing path from the request prefix.
type Address struct {
	Root    string // scheme://host[:port][/prefix], no trailing slash
	Team    string
	Suite   string
	Version string
}

// ParseAddress parses raw per spec §4.6:
// `<scheme>://<host>[:<port>][/<prefix>][/@/<team>/<suite>/<version>]`.
func ParseAddress(raw string) (Address, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Address{}, fmt.Errorf("%w: invalid api_url: %v", ErrConfig, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Address{}, fmt.Errorf("%w: api_url must be absolute: %q", ErrConfig, raw)
	}

	path := strings.Trim(u.Path, "/")
	root := u.Scheme + "://" + u.Host

	marker := "@/"
	idx := strings.Index(path, marker)
	if idx < 0 {
		if path != "" {
			root += "/" + path
		}
		return Address{Root: root}, nil
	}

	prefix := strings.TrimSuffix(path[:idx], "/")
	if prefix != "" {
		root += "/" + prefix
	}

	tail := strings.Split(path[idx+len(marker):], "/")
	var addr Address
	addr.Root = root
	if len(tail) > 0 {
		addr.Team = tail[0]
	}
	if len(tail) > 1 {
		addr.Suite = tail[1]
	}
	if len(tail) > 2 {
		addr.Version = tail[2]
	}
	return addr, nil
}

// Reconcile merges addr's team/suite/version with explicitly-configured
// values, failing with config_error on any disagreement (spec §4.6).
func Reconcile(addr Address, team, suite, version string) (string, string, string, error) {
	merge := func(fromURL, explicit, field string) (string, error) {
		switch {
		case fromURL == "" && explicit == "":
			return "", nil
		case fromURL == "":
			return explicit, nil
		case explicit == "":
			return fromURL, nil
		case fromURL == explicit:
			return fromURL, nil
		default:
			return "", fmt.Errorf("%w: %s conflicts between api_url (%q) and explicit configuration (%q)", ErrConfig, field, fromURL, explicit)
		}
	}

	finalTeam, err := merge(addr.Team, team, "team")
	if err != nil {
		return "", "", "", err
	}
	finalSuite, err := merge(addr.Suite, suite, "suite")
	if err != nil {
		return "", "", "", err
	}
	finalVersion, err := merge(addr.Version, version, "version")
	if err != nil {
		return "", "", "", err
	}
	return finalTeam, finalSuite, finalVersion, nil
}
