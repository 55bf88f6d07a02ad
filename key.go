// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import (
	"strconv"
	"strings"
)

// Host names that Key treats as "localhost".
// Other loopback spellings such as "::1" or "LOCALHOST.localdomain" are
// kept as given and pair only with callers that spell them the same way.
const (
	anyAddress       = "0.0.0.0"
	loopbackAddress  = "127.0.0.1"
	localhostAddress = "localhost"
)

// Key returns the rendezvous key for addr and port. Keys are
// case-insensitive, and "0.0.0.0" and "127.0.0.1" share the key of
// "localhost".
func Key(addr string, port int) string {
	if addr == anyAddress || addr == loopbackAddress {
		addr = localhostAddress
	}
	return strings.ToUpper(addr + ":" + strconv.Itoa(port))
}
