package nicdrv

import (
	"errors"
	"fmt"

	"github.com/tamzrod/ecatlink/internal/ecat"
)

// OutFrame sends the prepared frame of slot idx on the selected link.
// The slot is marked TX before the send and stays TX until the matcher
// resolves it, so a frame returning early still finds its owner.
// On rejection the slot falls back to ALLOC; the caller keeps the index.
func (p *Port) OutFrame(idx int, stack Stack) error {
	if err := checkIndex(idx); err != nil {
		return err
	}
	sp, err := p.stack(stack)
	if err != nil {
		return err
	}
	return sp.outFrame(idx)
}

func (p *Port) outFrame(idx int) error {
	slot := &p.tx[idx]
	if slot.n < ecat.EthHeaderSize {
		return fmt.Errorf("%w: index %d", ErrNotPrepared, idx)
	}

	p.rx[idx].store(BufTx)
	if err := p.dev.Send(slot.buf[:slot.n]); err != nil {
		p.rx[idx].store(BufAlloc)
		p.stats.sendErrors.Add(1)
		p.log.Warn().Err(err).Int("index", idx).Msg("frame rejected by link")
		return fmt.Errorf("%w: %w", ErrTxRejected, err)
	}

	p.stats.framesSent.Add(1)
	return nil
}

// OutFrameRed sends slot idx on the primary link with the primary route
// tag. In redundant mode it also sends a BRD frame with the secondary tag
// and the same index on the secondary link, so each link can report which
// way the ring is passable. Fails if no link accepted its frame, or at once,
// without touching the secondary, if the slot cannot be sent at all.
func (p *Port) OutFrameRed(idx int) error {
	if err := checkIndex(idx); err != nil {
		return err
	}

	if err := ecat.SetSource(p.tx[idx].buf[:], ecat.PrimaryMAC); err != nil {
		return err
	}
	perr := p.outFrame(idx)
	if p.redMode != RedDouble || (perr != nil && !errors.Is(perr, ErrTxRejected)) {
		return perr
	}

	s := p.peer

	p.dummyMu.Lock()
	_ = ecat.SetIndex(p.dummy[:], uint8(idx))
	s.rx[idx].store(BufTx)
	serr := s.dev.Send(p.dummy[:p.dummyLen])
	p.dummyMu.Unlock()

	if serr != nil {
		s.rx[idx].store(BufAlloc)
		s.stats.sendErrors.Add(1)
		s.log.Warn().Err(serr).Int("index", idx).Msg("redundant frame rejected by link")
		if perr != nil {
			return perr
		}
		return nil
	}
	s.stats.framesSent.Add(1)

	if perr != nil {
		p.log.Debug().Int("index", idx).Msg("primary link rejected frame, relying on secondary")
	}
	return nil
}
