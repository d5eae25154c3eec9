package transact

import "time"

// Wire timing is derived from the link parameters rather than guessed: one
// character costs (start + data + parity + stop) bit times, and a full
// exchange costs the command plus the worst-case reply, with a safety margin
// on top for adapter latency (empirically ~10%).

const safetyMarginPercent = 10

// FrameBits returns the number of bits one character occupies on the wire.
func FrameBits(dataBits, stopBits int, parityBit bool) int {
	bits := 1 + dataBits + stopBits
	if parityBit {
		bits++
	}
	return bits
}

// CharDuration returns the time one character occupies the link.
func CharDuration(baudRate, frameBits int) time.Duration {
	if baudRate <= 0 {
		return 0
	}
	return time.Duration(int64(time.Second) * int64(frameBits) / int64(baudRate))
}

// TransferTime returns the wire time for chars characters including margin.
func TransferTime(baudRate, frameBits, chars int) time.Duration {
	d := time.Duration(chars) * CharDuration(baudRate, frameBits)
	return d + d*safetyMarginPercent/100
}

// replyBudget computes the read deadline for one exchange: command plus
// terminator going out, worst-case reply plus terminator coming back. The
// configured floor guards against budgets shorter than the instrument's
// internal processing time.
func (e *Engine) replyBudget(commandLen int) time.Duration {
	chars := commandLen + len(lineTerminator) + e.cfg.ReplyLimit + len(lineTerminator)
	budget := TransferTime(e.cfg.BaudRate, e.frameBits, chars)
	if budget < e.cfg.ReadFloor {
		return e.cfg.ReadFloor
	}
	return budget
}
