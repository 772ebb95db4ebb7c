package store

import (
	"fmt"
	"strings"

	"github.com/mwantia/coordtree/data"
)

// Address identifies a store endpoint and the optional chroot under which
// all paths of a session are resolved.
type Address struct {
	Host   string
	Chroot string
}

// ParseAddress splits "host[/chroot]" into its parts. Hosts may list several
// comma separated endpoints; the chroot applies to all of them.
func ParseAddress(address string) (Address, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Address{}, fmt.Errorf("%w: empty store address", data.ErrInvalidPath)
	}

	idx := strings.Index(address, "/")
	if idx < 0 {
		return Address{Host: address}, nil
	}

	addr := Address{
		Host:   address[:idx],
		Chroot: address[idx:],
	}

	if addr.Host == "" {
		return Address{}, fmt.Errorf("%w: store address '%s' has no host", data.ErrInvalidPath, address)
	}

	if addr.Chroot == data.RootPath {
		addr.Chroot = ""
		return addr, nil
	}

	if err := data.ValidatePath(addr.Chroot); err != nil {
		return Address{}, err
	}

	return addr, nil
}

// String joins host and chroot back into the address form.
func (a Address) String() string {
	return a.Host + a.Chroot
}

// Hosts returns the comma separated endpoints of the address.
func (a Address) Hosts() []string {
	var hosts []string
	for _, host := range strings.Split(a.Host, ",") {
		if host = strings.TrimSpace(host); host != "" {
			hosts = append(hosts, host)
		}
	}

	return hosts
}
