// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

// Role is the side a caller takes in a pairing. Only a client and a
// server pair with each other.
type Role uint8

const (
	RoleClient Role = iota + 1
	RoleServer
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	}
	return "unknown"
}

// outcome is how a single pairing attempt ended.
type outcome uint8

const (
	outcomePaired outcome = iota
	outcomeMismatch
	outcomeTimeout
	outcomeCancelled
)

func (o outcome) String() string {
	switch o {
	case outcomePaired:
		return "paired"
	case outcomeMismatch:
		return "mismatch"
	case outcomeTimeout:
		return "timeout"
	case outcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}
