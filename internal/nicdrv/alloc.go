package nicdrv

// GetIndex allocates a free slot and returns its index.
// The scan starts after the last allocated index and makes one full pass;
// a busy slot is never reused, so a full store reports ErrAllocatorExhausted.
func (p *Port) GetIndex() (int, error) {
	p.idxMu.Lock()
	defer p.idxMu.Unlock()

	idx := p.lastIdx + 1
	for cnt := 0; cnt < MaxBuf; cnt++ {
		if idx >= MaxBuf {
			idx = 0
		}
		if p.rx[idx].status.CompareAndSwap(int32(BufEmpty), int32(BufAlloc)) {
			if p.redMode == RedDouble {
				p.peer.rx[idx].store(BufAlloc)
			}
			p.lastIdx = idx
			return idx, nil
		}
		idx++
	}

	p.stats.exhausted.Add(1)
	p.log.Warn().Int("slots", MaxBuf).Msg("frame allocator exhausted")
	return -1, ErrAllocatorExhausted
}

// SetBufStat writes a slot status on this port and, in redundant mode,
// on the peer.
func (p *Port) SetBufStat(idx int, st BufStatus) error {
	if err := checkIndex(idx); err != nil {
		return err
	}
	p.rx[idx].store(st)
	if p.redMode == RedDouble {
		p.peer.rx[idx].store(st)
	}
	return nil
}

// Release hands an index back to the allocator. Callers release after
// consuming the response, or after giving up on a timed out exchange.
// The prepared frame is forgotten; the next owner must set up its own.
func (p *Port) Release(idx int) error {
	if err := checkIndex(idx); err != nil {
		return err
	}
	p.tx[idx].n = 0
	return p.SetBufStat(idx, BufEmpty)
}
