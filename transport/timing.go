package transport

import "time"

// Default values for SIP timers as described in RFC 3261.
const (
	// T1 is the message RTT estimate.
	T1 = 500 * time.Millisecond
	// T2 is the maximum retransmit interval for non-INVITE requests.
	T2 = 4 * time.Second
)

// Timings represents SIP timing config.
// Zero fields fall back to [T1] and [T2].
// All other timings are calculated from these base values.
type Timings struct {
	T1, T2 time.Duration
}

// BaseT1 returns the message RTT estimate.
func (c Timings) BaseT1() time.Duration {
	if c.T1 <= 0 {
		return T1
	}
	return c.T1
}

// BaseT2 returns the maximum retransmit interval for non-INVITE requests.
func (c Timings) BaseT2() time.Duration {
	if c.T2 <= 0 {
		return T2
	}
	return c.T2
}

// TimeE returns initial non-INVITE request retransmit interval for unreliable transport.
// It is equal to [Timings.BaseT1].
func (c Timings) TimeE() time.Duration { return c.BaseT1() }

// TimeF returns non-INVITE client transaction timeout.
// It is equal to 64*[Timings.BaseT1].
func (c Timings) TimeF() time.Duration { return 64 * c.BaseT1() }

