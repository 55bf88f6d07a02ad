// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import "code.hybscloud.com/atomix"

// Serial is a monotonically increasing queue identifier.
// Each queue created by NewQueue takes the next value; logs use it to tell
// the two directions of a pairing apart.
type Serial = uint32

// counter is the global monotonic counter for queue serials.
var counter atomix.Uint32

// nextSerial returns the next monotonically increasing serial.
func nextSerial() Serial {
	return counter.Add(1)
}
